package spotify

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/desertthunder/spotapi/internal/shared"
	tu "github.com/desertthunder/spotapi/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenPath = "/api/token"

func newTestClient(api *tu.FakeAPI, opts Options) *Client {
	if opts.ClientID == "" {
		opts.ClientID = "cid"
	}
	if opts.ClientSecret == "" {
		opts.ClientSecret = "sec"
	}
	if opts.RedirectURI == "" {
		opts.RedirectURI = "https://cb"
	}
	opts.HTTPClient = api.Client()
	opts.AuthURL = api.URL + "/authorize"
	opts.TokenURL = api.URL + tokenPath
	opts.APIBaseURL = api.URL + "/v1"
	return New(opts)
}

func TestExchangeCode(t *testing.T) {
	ctx := context.Background()

	t.Run("stores both tokens on success", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodPost, tokenPath, http.StatusOK,
			`{"access_token":"A","token_type":"Bearer","scope":"user-read-email","expires_in":3600,"refresh_token":"R"}`)
		c := newTestClient(api, Options{})

		res, err := c.ExchangeCode(ctx, "ABC")
		require.NoError(t, err)

		got, ok := res.Get()
		require.True(t, ok)
		assert.Equal(t, AccessTokenResult{
			AccessToken:  "A",
			TokenType:    "Bearer",
			Scope:        "user-read-email",
			ExpiresIn:    3600,
			RefreshToken: "R",
		}, got)
		assert.Equal(t, Tokens{AccessToken: "A", RefreshToken: "R"}, c.Session().Snapshot())

		req, ok := api.Last()
		require.True(t, ok)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "authorization_code", req.Form.Get("grant_type"))
		assert.Equal(t, "ABC", req.Form.Get("code"))
		assert.Equal(t, "cid", req.Form.Get("client_id"))
		assert.Equal(t, "sec", req.Form.Get("client_secret"))
		assert.Equal(t, "https://cb", req.Form.Get("redirect_uri"))
	})

	t.Run("malformed body leaves session untouched", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodPost, tokenPath, http.StatusOK, `{"access_token":`)
		c := newTestClient(api, Options{BearerToken: "old", RefreshToken: "oldR"})

		res, err := c.ExchangeCode(ctx, "ABC")
		require.NoError(t, err)
		assert.False(t, res.OK())
		assert.Equal(t, DecodeFailure, res.Outcome())
		assert.True(t, errors.Is(res.Err(), shared.ErrDecode))
		assert.False(t, res.Retryable())
		assert.Equal(t, Tokens{AccessToken: "old", RefreshToken: "oldR"}, c.Session().Snapshot())
	})

	t.Run("body without access token is a decode failure", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodPost, tokenPath, http.StatusOK, `{"token_type":"Bearer"}`)
		c := newTestClient(api, Options{})

		res, err := c.ExchangeCode(ctx, "ABC")
		require.NoError(t, err)
		assert.Equal(t, DecodeFailure, res.Outcome())
		assert.Empty(t, c.Session().AccessToken())
	})

	t.Run("rejected code is a status failure", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodPost, tokenPath, http.StatusBadRequest,
			`{"error":"invalid_grant","error_description":"Invalid authorization code"}`)
		c := newTestClient(api, Options{})

		res, err := c.ExchangeCode(ctx, "expired")
		require.NoError(t, err)
		assert.Equal(t, StatusFailure, res.Outcome())
		assert.Equal(t, http.StatusBadRequest, res.StatusCode())
		assert.True(t, errors.Is(res.Err(), shared.ErrAPIRequest))
		assert.Empty(t, c.Session().AccessToken())
	})

	t.Run("transport failure is retryable", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
		c := New(Options{
			ClientID: "cid", ClientSecret: "sec", RedirectURI: "https://cb",
			HTTPClient: &http.Client{Transport: rt},
		})

		res, err := c.ExchangeCode(ctx, "ABC")
		require.NoError(t, err)
		assert.Equal(t, TransportFailure, res.Outcome())
		assert.True(t, res.Retryable())
		assert.True(t, errors.Is(res.Err(), shared.ErrTransport))
		assert.Equal(t, 0, res.StatusCode())
		assert.Equal(t, 1, rt.Calls())
	})

	t.Run("cancelled context is a transport failure", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodPost, tokenPath, http.StatusOK, `{"access_token":"A","refresh_token":"R"}`)
		c := newTestClient(api, Options{})

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		res, err := c.ExchangeCode(cancelled, "ABC")
		require.NoError(t, err)
		assert.Equal(t, TransportFailure, res.Outcome())
		assert.Empty(t, c.Session().AccessToken())
	})

	preconditions := []struct {
		name  string
		opts  Options
		field string
	}{
		{name: "missing client id", opts: Options{ClientSecret: "sec", RedirectURI: "https://cb"}, field: "client_id"},
		{name: "missing client secret", opts: Options{ClientID: "cid", RedirectURI: "https://cb"}, field: "client_secret"},
		{name: "missing redirect uri", opts: Options{ClientID: "cid", ClientSecret: "sec"}, field: "redirect_uri"},
	}
	for _, tt := range preconditions {
		t.Run(tt.name, func(t *testing.T) {
			rt := tu.NewMockRoundTripper(nil, errors.New("unreachable"))
			tt.opts.HTTPClient = &http.Client{Transport: rt}
			c := New(tt.opts)

			_, err := c.ExchangeCode(ctx, "ABC")
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrPrecondition))
			assert.Contains(t, err.Error(), tt.field)
			assert.Equal(t, 0, rt.Calls())
		})
	}
}

func TestRefreshAccessToken(t *testing.T) {
	ctx := context.Background()
	refreshed := `{"access_token":"A2","token_type":"Bearer","scope":"user-read-email","expires_in":3600}`

	t.Run("explicit token replaces only the access token", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodPost, tokenPath, http.StatusOK, refreshed)
		c := newTestClient(api, Options{BearerToken: "A1", RefreshToken: "stored"})

		res, err := c.RefreshAccessToken(ctx, "explicit")
		require.NoError(t, err)

		got, ok := res.Get()
		require.True(t, ok)
		assert.Equal(t, RefreshTokenResult{AccessToken: "A2", TokenType: "Bearer", Scope: "user-read-email", ExpiresIn: 3600}, got)
		assert.Equal(t, Tokens{AccessToken: "A2", RefreshToken: "stored"}, c.Session().Snapshot())

		req, ok := api.Last()
		require.True(t, ok)
		assert.Equal(t, "refresh_token", req.Form.Get("grant_type"))
		assert.Equal(t, "explicit", req.Form.Get("refresh_token"))
		assert.Equal(t, "cid", req.Form.Get("client_id"))
		assert.Equal(t, "sec", req.Form.Get("client_secret"))
	})

	t.Run("falls back to the stored refresh token", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodPost, tokenPath, http.StatusOK, refreshed)
		c := newTestClient(api, Options{RefreshToken: "stored"})

		res, err := c.RefreshAccessToken(ctx, "")
		require.NoError(t, err)
		assert.True(t, res.OK())

		req, _ := api.Last()
		assert.Equal(t, "stored", req.Form.Get("refresh_token"))
		assert.Equal(t, "A2", c.Session().AccessToken())
	})

	t.Run("redirect uri is not required", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodPost, tokenPath, http.StatusOK, refreshed)
		c := New(Options{
			ClientID: "cid", ClientSecret: "sec", RefreshToken: "stored",
			HTTPClient: api.Client(), TokenURL: api.URL + tokenPath,
		})

		res, err := c.RefreshAccessToken(ctx, "")
		require.NoError(t, err)
		assert.True(t, res.OK())
	})

	t.Run("revoked refresh token keeps the old access token", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodPost, tokenPath, http.StatusBadRequest, `{"error":"invalid_grant"}`)
		c := newTestClient(api, Options{BearerToken: "A1", RefreshToken: "stored"})

		res, err := c.RefreshAccessToken(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, StatusFailure, res.Outcome())
		assert.Equal(t, Tokens{AccessToken: "A1", RefreshToken: "stored"}, c.Session().Snapshot())
	})

	t.Run("no refresh token anywhere", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		c := newTestClient(api, Options{})

		_, err := c.RefreshAccessToken(ctx, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrPrecondition))
		assert.Empty(t, api.Requests())
	})

	t.Run("missing client secret", func(t *testing.T) {
		c := New(Options{ClientID: "cid"})

		_, err := c.RefreshAccessToken(ctx, "explicit")
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrPrecondition))
		assert.Contains(t, err.Error(), "client_secret")
	})
}

func TestConcurrentRefreshAndCalls(t *testing.T) {
	api := tu.NewFakeAPI(t)
	api.Handle(http.MethodPost, tokenPath, http.StatusOK, `{"access_token":"A2","token_type":"Bearer","expires_in":3600}`)
	api.Handle(http.MethodGet, "/v1/me", http.StatusOK, `{"id":"u1"}`)

	var (
		mu      sync.Mutex
		updates []Tokens
	)
	c := newTestClient(api, Options{
		BearerToken:  "A1",
		RefreshToken: "R",
		OnTokenUpdate: func(tk Tokens) {
			mu.Lock()
			updates = append(updates, tk)
			mu.Unlock()
		},
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			res, err := c.RefreshAccessToken(ctx, "")
			assert.NoError(t, err)
			assert.True(t, res.OK())
		}()
		go func() {
			defer wg.Done()
			user, err := c.Me(ctx)
			assert.NoError(t, err)
			assert.NotNil(t, user)
		}()
	}
	wg.Wait()

	for _, req := range api.Requests() {
		if req.Path != "/v1/me" {
			continue
		}
		auth := req.Header.Get("Authorization")
		assert.Contains(t, []string{"Bearer A1", "Bearer A2"}, auth)
	}
	assert.Equal(t, Tokens{AccessToken: "A2", RefreshToken: "R"}, c.Session().Snapshot())

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, updates, 8)
	for _, tk := range updates {
		assert.Equal(t, Tokens{AccessToken: "A2", RefreshToken: "R"}, tk)
	}
}

func TestOnTokenUpdate(t *testing.T) {
	ctx := context.Background()
	api := tu.NewFakeAPI(t)

	var mu sync.Mutex
	var updates []Tokens
	c := newTestClient(api, Options{OnTokenUpdate: func(tk Tokens) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, tk)
	}})

	api.Handle(http.MethodPost, tokenPath, http.StatusOK, `{"access_token":"A","token_type":"Bearer","refresh_token":"R"}`)
	_, err := c.ExchangeCode(ctx, "ABC")
	require.NoError(t, err)

	api.Handle(http.MethodPost, tokenPath, http.StatusOK, `{"access_token":"A2","token_type":"Bearer"}`)
	_, err = c.RefreshAccessToken(ctx, "")
	require.NoError(t, err)

	api.Handle(http.MethodPost, tokenPath, http.StatusInternalServerError, `{"error":"server_error"}`)
	_, err = c.RefreshAccessToken(ctx, "")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Tokens{
		{AccessToken: "A", RefreshToken: "R"},
		{AccessToken: "A2", RefreshToken: "R"},
	}, updates)
}

func TestClose(t *testing.T) {
	c := New(Options{})
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
