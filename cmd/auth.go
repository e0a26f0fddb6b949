package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/spotapi/internal/server"
	"github.com/desertthunder/spotapi/internal/shared"
	"github.com/desertthunder/spotapi/spotify"
	"github.com/urfave/cli/v3"
)

// scopes resolves --scope flags, falling back to the scopes in the config file.
func (r *Runner) scopes(cmd *cli.Command) ([]spotify.Scope, error) {
	names := cmd.StringSlice("scope")
	if len(names) == 0 {
		names = r.config.Credentials.Spotify.Scopes
	}

	scopes := make([]spotify.Scope, 0, len(names))
	for _, name := range names {
		sc, ok := spotify.ParseScope(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown scope %q", shared.ErrInvalidArgument, name)
		}
		scopes = append(scopes, sc)
	}
	return scopes, nil
}

// authURL builds the authorization URL with a fresh state parameter appended.
func (r *Runner) authURL(cmd *cli.Command) (authURL, state string, err error) {
	scopes, err := r.scopes(cmd)
	if err != nil {
		return "", "", err
	}

	authURL, err = r.client.AuthURL(scopes...)
	if err != nil {
		return "", "", err
	}

	state, err = shared.GenerateState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state token: %w", err)
	}

	return authURL + "&state=" + url.QueryEscape(state), state, nil
}

// callbackAddr is the address the login server listens on: the host and port of the redirect URI when it is
// an http URL, otherwise the [server] section of the config.
func (r *Runner) callbackAddr() string {
	if u, err := url.Parse(r.config.Credentials.Spotify.RedirectURI); err == nil && u.Scheme == "http" && u.Port() != "" {
		return u.Host
	}
	return net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
}

// AuthURL prints the authorization URL for the configured scopes.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	authURL, _, err := r.authURL(cmd)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", authURL)
}

// AuthLogin performs the authorization-code flow.
//
// Starts a local HTTP server on the redirect URI, opens the browser for user authorization, and exchanges the
// code for tokens, which the client's token hook saves.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	authURL, state, err := r.authURL(cmd)
	if err != nil {
		return err
	}

	oauthHandler := server.NewOAuthHandler(r.client, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	srv, err := server.Listen(r.callbackAddr(), router, r.logger)
	if err != nil {
		return err
	}
	serverErrors := srv.Serve()
	r.logger.Infof("started OAuth callback server at %v", srv.Addr())

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("%s\n", r.palette.Step("Opening browser for Spotify authorization..."))
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln(r.palette.Warn("Could not open browser automatically."))
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("%s\n", r.palette.Step("Waiting for authorization (%s timeout)...", r.loginTimeout))

	timeout := time.NewTimer(r.loginTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err, ok := <-serverErrors:
		if ok && err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return fmt.Errorf("%w: callback server stopped", shared.ErrServiceUnavailable)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, r.loginTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := result.Error(); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	r.recordGrant(result.Token.Scope, result.Token.ExpiresIn)
	r.writePlainln(r.palette.OK("Authorization successful"))
	r.writePlain("Granted scopes: %s\n", result.Token.Scope)
	return r.writePlain("You can now use: spotapi me\n")
}

// AuthExchange trades an authorization code, or the callback URL carrying one, for tokens.
func (r *Runner) AuthExchange(ctx context.Context, cmd *cli.Command) error {
	code := cmd.Args().First()
	if callback := cmd.String("url"); callback != "" {
		if err := spotify.CallbackError(callback); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		extracted, ok := spotify.ExtractAuthCode(callback)
		if !ok {
			return fmt.Errorf("%w: callback URL has no code", shared.ErrMissingArgument)
		}
		code = extracted
	}
	if code == "" {
		return fmt.Errorf("%w: provide a code or --url", shared.ErrMissingArgument)
	}

	res, err := r.client.ExchangeCode(ctx, code)
	if err != nil {
		return err
	}
	token, ok := res.Get()
	if !ok {
		return fmt.Errorf("%w: %s: %w", shared.ErrAuthFailed, res.Outcome(), res.Err())
	}

	r.recordGrant(token.Scope, token.ExpiresIn)
	return r.render(cmd, token, func() error {
		r.writePlain("%s\n", r.palette.OK("Code exchanged"))
		return r.writePlain("Scope: %s\nExpires in: %ds\n", token.Scope, token.ExpiresIn)
	})
}

// AuthCode prints the code carried by a callback URL.
func (r *Runner) AuthCode(ctx context.Context, cmd *cli.Command) error {
	callback := cmd.Args().First()
	if callback == "" {
		return fmt.Errorf("%w: callback URL", shared.ErrMissingArgument)
	}
	if err := spotify.CallbackError(callback); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	code, ok := spotify.ExtractAuthCode(callback)
	if !ok {
		return fmt.Errorf("%w: callback URL has no code", shared.ErrMissingArgument)
	}
	return r.writePlain("%s\n", code)
}

// AuthRefresh obtains a new access token with --token or the stored refresh token.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	res, err := r.client.RefreshAccessToken(ctx, cmd.String("token"))
	if err != nil {
		return err
	}
	token, ok := res.Get()
	if !ok {
		return fmt.Errorf("%w: %s: %w", shared.ErrRefreshFailed, res.Outcome(), res.Err())
	}

	r.recordGrant(token.Scope, token.ExpiresIn)
	return r.render(cmd, token, func() error {
		r.writePlain("%s\n", r.palette.OK("Access token refreshed"))
		return r.writePlain("Expires in: %ds\n", token.ExpiresIn)
	})
}

// AuthStatus reports which credentials and tokens are available.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	creds := r.client.Credentials()
	tokens := r.client.Session().Snapshot()

	r.writePlain("%s\n", r.palette.Title("Spotify session"))
	r.writePlain("Client ID: %s\n", present(creds.ClientID != ""))
	r.writePlain("Client secret: %s\n", present(creds.ClientSecret != ""))
	r.writePlain("Redirect URI: %s\n", creds.RedirectURI)
	r.writePlain("Access token: %s\n", present(tokens.AccessToken != ""))
	r.writePlain("Refresh token: %s\n", present(tokens.RefreshToken != ""))

	if r.sessions == nil || creds.ClientID == "" {
		return nil
	}

	stored, err := r.sessions.Get(creds.ClientID)
	if errors.Is(err, shared.ErrSessionNotFound) {
		return r.writePlain("Stored session: none\n")
	} else if err != nil {
		return err
	}

	r.writePlain("Stored session: updated %s\n", stored.UpdatedAt.Format(time.RFC3339))
	if stored.Scope != "" {
		r.writePlain("Scope: %s\n", stored.Scope)
	}
	if stored.ExpiresAt != nil {
		state := "valid"
		if stored.Expired(time.Now()) {
			state = "expired"
		}
		r.writePlain("Access token expires: %s (%s)\n", stored.ExpiresAt.Format(time.RFC3339), state)
	}
	return nil
}

// AuthLogout forgets the saved tokens in both the config file and the session database.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	sc := &r.config.Credentials.Spotify
	sc.AccessToken, sc.RefreshToken = "", ""

	if r.configPath != "" {
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			return err
		}
	}

	if r.sessions != nil && sc.ClientID != "" {
		if err := r.sessions.Delete(sc.ClientID); err != nil && !errors.Is(err, shared.ErrSessionNotFound) {
			return err
		}
	}

	r.connect()
	return r.writePlain("%s\n", r.palette.OK("Logged out"))
}

func present(ok bool) string {
	if ok {
		return "set"
	}
	return "missing"
}
