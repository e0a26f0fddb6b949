package spotify

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotapi/internal/shared"
	"github.com/go-playground/form/v4"
)

const (
	defaultAuthURL    = "https://accounts.spotify.com/authorize"
	defaultTokenURL   = "https://accounts.spotify.com/api/token"
	defaultAPIBaseURL = "https://api.spotify.com/v1"
)

// Options configures a [Client]. Every field is optional; missing credentials are reported by the
// first operation that needs them.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// BearerToken and RefreshToken pre-seed the session, e.g. with tokens saved by an earlier run.
	BearerToken  string
	RefreshToken string

	// HTTPClient defaults to a client with its own transport so that [Client.Close] does not
	// disturb connections pooled by [http.DefaultTransport].
	HTTPClient *http.Client
	// Logger receives debug lines describing absorbed failures. Defaults to a discarding logger.
	Logger *log.Logger

	// AuthURL, TokenURL and APIBaseURL override the Spotify endpoints.
	AuthURL    string
	TokenURL   string
	APIBaseURL string

	// OnTokenUpdate is called with the new session contents after every successful token exchange or refresh.
	OnTokenUpdate func(Tokens)
}

// Client is a Spotify Web API client holding one [Session].
type Client struct {
	creds      Credentials
	session    *Session
	tokens     *TokenExchanger
	httpClient *http.Client
	authURL    string
	apiBaseURL string
	encoder    *form.Encoder
	logger     *log.Logger
	closeOnce  sync.Once
}

// New creates a [Client] from opts.
func New(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.AuthURL == "" {
		opts.AuthURL = defaultAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = defaultTokenURL
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = defaultAPIBaseURL
	}

	creds := Credentials{ClientID: opts.ClientID, ClientSecret: opts.ClientSecret, RedirectURI: opts.RedirectURI}
	session := NewSession(opts.BearerToken, opts.RefreshToken)
	logger := shared.WithLogger(opts.Logger, "component", "spotify")

	return &Client{
		creds:   creds,
		session: session,
		tokens: &TokenExchanger{
			creds:      creds,
			session:    session,
			authURL:    opts.AuthURL,
			tokenURL:   opts.TokenURL,
			httpClient: opts.HTTPClient,
			logger:     logger,
			onUpdate:   opts.OnTokenUpdate,
		},
		httpClient: opts.HTTPClient,
		authURL:    opts.AuthURL,
		apiBaseURL: strings.TrimRight(opts.APIBaseURL, "/"),
		encoder:    form.NewEncoder(),
		logger:     logger,
	}
}

// Credentials returns the application credentials the client was built with.
func (c *Client) Credentials() Credentials { return c.creds }

// Session returns the client's session. Callers may read it; only token operations write it.
func (c *Client) Session() *Session { return c.session }

// AuthURL builds the authorization URL for this client's credentials.
func (c *Client) AuthURL(scopes ...Scope) (string, error) {
	return buildAuthURL(c.authURL, c.creds.ClientID, c.creds.RedirectURI, NewScopes(scopes...))
}

// ExchangeCode is [TokenExchanger.ExchangeCode] on the client's session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Result[AccessTokenResult], error) {
	return c.tokens.ExchangeCode(ctx, code)
}

// RefreshAccessToken is [TokenExchanger.RefreshAccessToken] on the client's session.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (Result[RefreshTokenResult], error) {
	return c.tokens.RefreshAccessToken(ctx, refreshToken)
}

// Close releases pooled connections. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.httpClient.CloseIdleConnections()
	})
	return nil
}
