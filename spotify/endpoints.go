package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultLimit  = 50
	defaultMarket = "US"
)

// endpoint describes one Web API resource. Every [Client] resource method is derived from one of these;
// the request/response behavior itself lives only in [Call] and [Do].
type endpoint struct {
	method string
	// path is a fmt template; each %s receives one path-escaped argument.
	path string
}

func (e endpoint) resolve(args ...string) string {
	if len(args) == 0 {
		return e.path
	}
	escaped := make([]any, len(args))
	for i, a := range args {
		escaped[i] = url.PathEscape(a)
	}
	return fmt.Sprintf(e.path, escaped...)
}

var (
	endpointAlbums           = endpoint{http.MethodGet, "/albums"}
	endpointAlbumTracks      = endpoint{http.MethodGet, "/albums/%s/tracks"}
	endpointArtists          = endpoint{http.MethodGet, "/artists"}
	endpointArtistAlbums     = endpoint{http.MethodGet, "/artists/%s/albums"}
	endpointRelatedArtists   = endpoint{http.MethodGet, "/artists/%s/related-artists"}
	endpointArtistTopTracks  = endpoint{http.MethodGet, "/artists/%s/top-tracks"}
	endpointUnfollow         = endpoint{http.MethodDelete, "/me/following"}
	endpointUnfollowPlaylist = endpoint{http.MethodDelete, "/playlists/%s/followers"}
	endpointQueue            = endpoint{http.MethodGet, "/me/player/queue"}
	endpointPlayback         = endpoint{http.MethodGet, "/me/player"}
	endpointMe               = endpoint{http.MethodGet, "/me"}
	endpointOwnPlaylists     = endpoint{http.MethodGet, "/me/playlists"}
	endpointAddItems         = endpoint{http.MethodPost, "/playlists/%s/tracks"}
	endpointGenreSeeds       = endpoint{http.MethodGet, "/recommendations/available-genre-seeds"}
)

type idsQuery struct {
	IDs string `form:"ids"`
}

type pageQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

type artistAlbumsQuery struct {
	IncludeGroups string `form:"include_groups,omitempty"`
	Limit         int    `form:"limit"`
	Offset        int    `form:"offset"`
}

type marketQuery struct {
	Market string `form:"market,omitempty"`
}

type unfollowQuery struct {
	IDs  string     `form:"ids"`
	Type FollowType `form:"type"`
}

type addItemsQuery struct {
	Position int    `form:"position"`
	URIs     string `form:"uris"`
}

// object fetches a single resource. Absence maps to nil.
func object[T any](ctx context.Context, c *Client, e endpoint, query any, args ...string) (*T, error) {
	res, err := Call[T](ctx, c, e.method, e.resolve(args...), query)
	if err != nil {
		return nil, err
	}
	v, ok := res.Get()
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// list fetches a wrapper object and unwraps its slice. Absence maps to an empty slice.
func list[W, T any](ctx context.Context, c *Client, e endpoint, query any, unwrap func(W) []T, args ...string) ([]T, error) {
	res, err := Call[W](ctx, c, e.method, e.resolve(args...), query)
	if err != nil {
		return nil, err
	}
	w, ok := res.Get()
	if !ok || unwrap(w) == nil {
		return []T{}, nil
	}
	return unwrap(w), nil
}

// succeeded sends a request whose body is ignored. Absence maps to false.
func succeeded(ctx context.Context, c *Client, e endpoint, query any, args ...string) (bool, error) {
	res, err := Do(ctx, c, e.method, e.resolve(args...), query)
	if err != nil {
		return false, err
	}
	return res.Or(false), nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > defaultLimit {
		return defaultLimit
	}
	return limit
}

func joinSet[S ~string](items []S) string {
	seen := make(map[S]struct{}, len(items))
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		parts = append(parts, string(it))
	}
	return strings.Join(parts, ",")
}

// Albums fetches several albums. An empty ids set returns an empty list without a request.
func (c *Client) Albums(ctx context.Context, ids ...string) ([]Album, error) {
	if len(ids) == 0 {
		if _, err := c.session.bearer(); err != nil {
			return nil, err
		}
		return []Album{}, nil
	}
	return list(ctx, c, endpointAlbums, idsQuery{IDs: joinSet(ids)},
		func(w struct{ Albums []Album }) []Album { return w.Albums })
}

// AlbumTracks fetches a page of an album's tracks. A limit outside 1..50 becomes 50.
func (c *Client) AlbumTracks(ctx context.Context, albumID string, limit, offset int) (*Tracks, error) {
	return object[Tracks](ctx, c, endpointAlbumTracks, pageQuery{Limit: clampLimit(limit), Offset: offset}, albumID)
}

// ArtistAlbums fetches a page of an artist's albums. No groups means albums only.
func (c *Client) ArtistAlbums(ctx context.Context, artistID string, groups []IncludeGroup, limit, offset int) (*ArtistAlbums, error) {
	if len(groups) == 0 {
		groups = []IncludeGroup{IncludeAlbum}
	}
	q := artistAlbumsQuery{IncludeGroups: joinSet(groups), Limit: clampLimit(limit), Offset: offset}
	return object[ArtistAlbums](ctx, c, endpointArtistAlbums, q, artistID)
}

// RelatedArtists fetches artists similar to artistID.
func (c *Client) RelatedArtists(ctx context.Context, artistID string) ([]RelatedArtist, error) {
	return list(ctx, c, endpointRelatedArtists, nil,
		func(w struct{ Artists []RelatedArtist }) []RelatedArtist { return w.Artists }, artistID)
}

// ArtistTopTracks fetches an artist's top tracks in market, "US" when empty.
func (c *Client) ArtistTopTracks(ctx context.Context, artistID, market string) ([]Track, error) {
	if market == "" {
		market = defaultMarket
	}
	return list(ctx, c, endpointArtistTopTracks, marketQuery{Market: market},
		func(w struct{ Tracks []Track }) []Track { return w.Tracks }, artistID)
}

// Artists fetches several artists.
func (c *Client) Artists(ctx context.Context, ids ...string) ([]Artist, error) {
	if len(ids) == 0 {
		if _, err := c.session.bearer(); err != nil {
			return nil, err
		}
		return []Artist{}, nil
	}
	return list(ctx, c, endpointArtists, idsQuery{IDs: joinSet(ids)},
		func(w struct{ Artists []Artist }) []Artist { return w.Artists })
}

// UnfollowUsers unfollows artists or users and reports whether the request succeeded.
// An empty ids set reports false without a request.
func (c *Client) UnfollowUsers(ctx context.Context, kind FollowType, ids ...string) (bool, error) {
	if len(ids) == 0 {
		if _, err := c.session.bearer(); err != nil {
			return false, err
		}
		return false, nil
	}
	return succeeded(ctx, c, endpointUnfollow, unfollowQuery{IDs: joinSet(ids), Type: kind})
}

// UnfollowPlaylist unfollows a playlist and reports whether the request succeeded.
func (c *Client) UnfollowPlaylist(ctx context.Context, playlistID string) (bool, error) {
	return succeeded(ctx, c, endpointUnfollowPlaylist, nil, playlistID)
}

// Queue fetches the user's playback queue.
func (c *Client) Queue(ctx context.Context) (*Queue, error) {
	return object[Queue](ctx, c, endpointQueue, nil)
}

// Playback fetches the user's current playback in market, "US" when empty.
//
// Nothing playing is answered with 204 No Content, which yields nil.
func (c *Client) Playback(ctx context.Context, market string) (*Playback, error) {
	if market == "" {
		market = defaultMarket
	}
	return object[Playback](ctx, c, endpointPlayback, marketQuery{Market: market})
}

// Me fetches the current user's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	return object[User](ctx, c, endpointMe, nil)
}

// OwnPlaylists fetches a page of the current user's playlists.
func (c *Client) OwnPlaylists(ctx context.Context, limit, offset int) (*PlaylistPage, error) {
	return object[PlaylistPage](ctx, c, endpointOwnPlaylists, pageQuery{Limit: clampLimit(limit), Offset: offset})
}

// AddItemsToPlaylist inserts track or episode URIs at position and reports whether the request succeeded.
func (c *Client) AddItemsToPlaylist(ctx context.Context, playlistID string, position int, uris ...string) (bool, error) {
	return succeeded(ctx, c, endpointAddItems, addItemsQuery{Position: position, URIs: joinSet(uris)}, playlistID)
}

// GenreSeeds fetches the genres usable as recommendation seeds.
func (c *Client) GenreSeeds(ctx context.Context) ([]string, error) {
	return list(ctx, c, endpointGenreSeeds, nil,
		func(w struct{ Genres []string }) []string { return w.Genres })
}
