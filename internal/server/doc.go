// Package server provides HTTP routing, middleware, and the OAuth callback handler used by the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] implements it on top of [http.ServeMux] with method filtering.
// [Middleware] wraps handlers so that the first one added runs outermost; [RequestLogger] is the only one shipped.
//
// # OAuth Callback Handler
//
// [OAuthHandler] serves the redirect URI of the authorization-code flow. It checks the state parameter,
// pulls the code out of the callback URL and trades it through a [CodeExchanger], normally a spotify.Client,
// which also stores the tokens in its session. The outcome is sent once on [OAuthHandler.Result];
// repeated callbacks are rejected.
//
// # Server
//
// [Listen] binds the callback address up front and [Server.Serve] runs the router in the background until
// [Server.Shutdown]. The CLI runs one for the length of a login and then stops it.
package server
