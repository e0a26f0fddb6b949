package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/desertthunder/spotapi/internal/shared"
	tu "github.com/desertthunder/spotapi/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an access token", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		c := newTestClient(api, Options{RefreshToken: "R"})

		_, err := Call[User](ctx, c, http.MethodGet, "/me", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrPrecondition))
		assert.Empty(t, api.Requests())
	})

	t.Run("sends bearer token and decodes", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodGet, "/v1/me", http.StatusOK, `{"id":"u1","display_name":"Ada","unknown_field":true}`)
		c := newTestClient(api, Options{BearerToken: "tok"})

		res, err := Call[User](ctx, c, http.MethodGet, "/me", nil)
		require.NoError(t, err)

		u, ok := res.Get()
		require.True(t, ok)
		assert.Equal(t, "u1", u.ID)
		assert.Equal(t, "Ada", u.Name())
		assert.Equal(t, http.StatusOK, res.StatusCode())
		assert.NoError(t, res.Err())

		req, _ := api.Last()
		assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		assert.Empty(t, req.Query)
	})

	t.Run("encodes tagged query structs", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodGet, "/v1/me/playlists", http.StatusOK, `{"items":[]}`)
		c := newTestClient(api, Options{BearerToken: "tok"})

		_, err := Call[PlaylistPage](ctx, c, http.MethodGet, "/me/playlists", pageQuery{Limit: 20, Offset: 40})
		require.NoError(t, err)

		req, _ := api.Last()
		assert.Equal(t, "20", req.Query.Get("limit"))
		assert.Equal(t, "40", req.Query.Get("offset"))
	})

	t.Run("passes url values through", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodGet, "/v1/me/player", http.StatusOK, `{"is_playing":true}`)
		c := newTestClient(api, Options{BearerToken: "tok"})

		res, err := Call[Playback](ctx, c, http.MethodGet, "/me/player", url.Values{"market": {"SE"}})
		require.NoError(t, err)
		assert.True(t, res.Or(Playback{}).IsPlaying)

		req, _ := api.Last()
		assert.Equal(t, "SE", req.Query.Get("market"))
	})

	t.Run("non-2xx is a status failure carrying the API message", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodGet, "/v1/me", http.StatusUnauthorized,
			`{"error":{"status":401,"message":"The access token expired"}}`)
		c := newTestClient(api, Options{BearerToken: "stale"})

		res, err := Call[User](ctx, c, http.MethodGet, "/me", nil)
		require.NoError(t, err)
		assert.Equal(t, StatusFailure, res.Outcome())
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode())
		assert.True(t, errors.Is(res.Err(), shared.ErrAPIRequest))
		assert.Contains(t, res.Err().Error(), "The access token expired")
		assert.False(t, res.Retryable())
		assert.Equal(t, "fallback", res.Or(User{ID: "fallback"}).ID)
	})

	t.Run("body of the wrong shape is a decode failure", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodGet, "/v1/me", http.StatusOK, `["not","an","object"]`)
		c := newTestClient(api, Options{BearerToken: "tok"})

		res, err := Call[User](ctx, c, http.MethodGet, "/me", nil)
		require.NoError(t, err)
		assert.Equal(t, DecodeFailure, res.Outcome())
		assert.Equal(t, http.StatusOK, res.StatusCode())
		assert.True(t, errors.Is(res.Err(), shared.ErrDecode))
	})

	t.Run("transport failure", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, errors.New("no route to host"))
		c := New(Options{BearerToken: "tok", HTTPClient: &http.Client{Transport: rt}})

		res, err := Call[User](ctx, c, http.MethodGet, "/me", nil)
		require.NoError(t, err)
		assert.Equal(t, TransportFailure, res.Outcome())
		assert.True(t, res.Retryable())
		assert.True(t, errors.Is(res.Err(), shared.ErrTransport))
	})

	t.Run("unreadable body is a transport failure", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       &tu.FCloser{},
		}, nil)
		c := New(Options{BearerToken: "tok", HTTPClient: &http.Client{Transport: rt}})

		res, err := Call[User](ctx, c, http.MethodGet, "/me", nil)
		require.NoError(t, err)
		assert.Equal(t, TransportFailure, res.Outcome())
		assert.Equal(t, http.StatusOK, res.StatusCode())
	})

	t.Run("unencodable query", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		c := newTestClient(api, Options{BearerToken: "tok"})

		res, err := Call[User](ctx, c, http.MethodGet, "/me", (*pageQuery)(nil))
		require.NoError(t, err)
		assert.False(t, res.OK())
		assert.True(t, errors.Is(res.Err(), shared.ErrInvalidArgument))
		assert.Empty(t, api.Requests())
	})
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("2xx without body succeeds", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle(http.MethodDelete, "/v1/playlists/p1/followers", http.StatusOK, "")
		c := newTestClient(api, Options{BearerToken: "tok"})

		res, err := Do(ctx, c, http.MethodDelete, "/playlists/p1/followers", nil)
		require.NoError(t, err)
		assert.True(t, res.Or(false))
	})

	t.Run("non-2xx is absent", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		c := newTestClient(api, Options{BearerToken: "tok"})

		res, err := Do(ctx, c, http.MethodDelete, "/playlists/missing/followers", nil)
		require.NoError(t, err)
		assert.False(t, res.Or(false))
		assert.Equal(t, http.StatusNotFound, res.StatusCode())
	})

	t.Run("requires an access token", func(t *testing.T) {
		c := New(Options{})
		_, err := Do(ctx, c, http.MethodDelete, "/playlists/p1/followers", nil)
		assert.True(t, errors.Is(err, shared.ErrPrecondition))
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "present", Present.String())
	assert.Equal(t, "transport failure", TransportFailure.String())
	assert.Equal(t, "status failure", StatusFailure.String())
	assert.Equal(t, "decode failure", DecodeFailure.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}
