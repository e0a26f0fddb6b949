// Package spotify is a typed client for the Spotify Web API.
//
// # Authorization
//
// A [Client] authenticates with the OAuth2 authorization-code flow. [Client.AuthURL] (or [BuildAuthURL]) returns
// the consent page URL; the user is redirected back with a one-time code, which [ExtractAuthCode] pulls out of the
// callback URL and [Client.ExchangeCode] trades for an access and refresh token.
//
// [Client.RefreshAccessToken] obtains a new access token. Tokens never refresh on their own: there is no expiry
// timer, and a 401 from the Web API is returned to the caller like any other status.
//
// # Session
//
// Each client owns exactly one [Session]. It may be seeded through [Options] with tokens from an earlier run and
// is written only by successful exchanges and refreshes. [Options.OnTokenUpdate] observes those writes.
//
// # Results
//
// Token operations and the generic [Call] and [Do] return a [Result] alongside an error. The error is reserved
// for preconditions (no access token, no client secret) and wraps [shared.ErrPrecondition]. Everything that can
// go wrong on the wire is absorbed into an absent result whose [Outcome] tells transport failures, non-2xx
// statuses and undecodable bodies apart.
//
// Resource methods such as [Client.Me] or [Client.Albums] go one step further and apply a fixed fallback:
// nil for single objects, an empty slice for lists, false for mutations.
package spotify
