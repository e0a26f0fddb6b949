package spotify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// AccessTokenResult is the token endpoint's answer to an authorization-code exchange.
type AccessTokenResult struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenResult is the token endpoint's answer to a refresh. The refresh token used stays valid.
type RefreshTokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenExchanger acquires tokens from the authorization server and is the only writer of its [Session].
type TokenExchanger struct {
	creds      Credentials
	session    *Session
	authURL    string
	tokenURL   string
	httpClient *http.Client
	logger     *log.Logger
	onUpdate   func(Tokens)
}

func (e *TokenExchanger) config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     e.creds.ClientID,
		ClientSecret: e.creds.ClientSecret,
		RedirectURL:  e.creds.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   e.authURL,
			TokenURL:  e.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (e *TokenExchanger) context(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
}

// ExchangeCode trades a one-time authorization code for an access and refresh token.
//
// The returned error is non-nil only when client_id, client_secret or redirect_uri is absent.
// Any other failure yields an absent result and leaves the session untouched.
func (e *TokenExchanger) ExchangeCode(ctx context.Context, code string) (Result[AccessTokenResult], error) {
	if err := e.creds.require(fieldClientID, fieldClientSecret, fieldRedirectURI); err != nil {
		return Result[AccessTokenResult]{}, err
	}

	token, err := e.config().Exchange(e.context(ctx), code)
	if err != nil {
		outcome, status, cause := classifyTokenError(err)
		e.logger.Debug("authorization code exchange failed", "outcome", outcome, "status", status, "error", cause)
		return absent[AccessTokenResult](outcome, status, cause), nil
	}

	result := AccessTokenResult{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		Scope:        extraString(token, "scope"),
		ExpiresIn:    extraInt(token, "expires_in"),
		RefreshToken: token.RefreshToken,
	}

	e.notify(e.session.store(result.AccessToken, result.RefreshToken))
	e.logger.Debug("authorization code exchanged", "scope", result.Scope, "expires_in", result.ExpiresIn)

	return present(result, http.StatusOK), nil
}

// RefreshAccessToken obtains a new access token. An empty refreshToken means the one held by the session.
//
// Only the access token in the session is replaced; the refresh token is left as it was.
func (e *TokenExchanger) RefreshAccessToken(ctx context.Context, refreshToken string) (Result[RefreshTokenResult], error) {
	if refreshToken == "" {
		refreshToken = e.session.RefreshToken()
	}
	if refreshToken == "" {
		return Result[RefreshTokenResult]{}, preconditionf("no refresh token supplied or stored")
	}
	if err := e.creds.require(fieldClientID, fieldClientSecret); err != nil {
		return Result[RefreshTokenResult]{}, err
	}

	// An expired token carrying only the refresh token forces the source to hit the token endpoint.
	src := e.config().TokenSource(e.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		outcome, status, cause := classifyTokenError(err)
		e.logger.Debug("token refresh failed", "outcome", outcome, "status", status, "error", cause)
		return absent[RefreshTokenResult](outcome, status, cause), nil
	}

	result := RefreshTokenResult{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		Scope:       extraString(token, "scope"),
		ExpiresIn:   extraInt(token, "expires_in"),
	}

	e.notify(e.session.storeAccess(result.AccessToken))
	e.logger.Debug("access token refreshed", "expires_in", result.ExpiresIn)

	return present(result, http.StatusOK), nil
}

func (e *TokenExchanger) notify(t Tokens) {
	if e.onUpdate != nil {
		e.onUpdate(t)
	}
}

func extraString(t *oauth2.Token, key string) string {
	switch v := t.Extra(key).(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// extraInt reads a numeric field that oauth2 surfaces as float64 (JSON), int64 or string (form bodies).
func extraInt(t *oauth2.Token, key string) int {
	switch v := t.Extra(key).(type) {
	case float64:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}
