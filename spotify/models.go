// Spotify Web API response types based on https://developer.spotify.com/documentation/web-api/reference/
//
// Optional fields are pointers or slices so a missing field decodes to nil rather than failing.

package spotify

// ExternalURLs holds links to open an object in a Spotify player.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// Image represents an image resource. Dimensions may be unknown.
type Image struct {
	URL    string `json:"url"`
	Height *int   `json:"height"`
	Width  *int   `json:"width"`
}

// Followers holds follower information for a user or artist.
type Followers struct {
	Href  *string `json:"href"`
	Total int     `json:"total"`
}

// Copyright is a copyright statement attached to an album.
type Copyright struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Artist is a simplified artist object.
type Artist struct {
	ExternalURLs ExternalURLs `json:"external_urls"`
	Href         string       `json:"href"`
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
}

// RelatedArtist is a full artist object as returned by the related-artists endpoint.
type RelatedArtist struct {
	ExternalURLs ExternalURLs `json:"external_urls"`
	Followers    Followers    `json:"followers"`
	Genres       []string     `json:"genres"`
	Href         string       `json:"href"`
	ID           string       `json:"id"`
	Images       []Image      `json:"images"`
	Name         string       `json:"name"`
	Popularity   int          `json:"popularity"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
}

// Album represents a Spotify album. Tracks is only set on full album objects.
type Album struct {
	AlbumType            string       `json:"album_type"` // album, single, compilation
	Artists              []Artist     `json:"artists"`
	AvailableMarkets     []string     `json:"available_markets"`
	Copyrights           []Copyright  `json:"copyrights"`
	ExternalURLs         ExternalURLs `json:"external_urls"`
	Href                 string       `json:"href"`
	ID                   string       `json:"id"`
	Images               []Image      `json:"images"`
	Name                 string       `json:"name"`
	Popularity           *int         `json:"popularity"`
	ReleaseDate          string       `json:"release_date"`
	ReleaseDatePrecision string       `json:"release_date_precision"`
	TotalTracks          int          `json:"total_tracks"`
	Tracks               *Tracks      `json:"tracks"`
	Type                 string       `json:"type"`
	URI                  string       `json:"uri"`
}

// Track represents a Spotify track. Album is absent on album track listings.
type Track struct {
	Artists          []Artist     `json:"artists"`
	Album            *Album       `json:"album"`
	AvailableMarkets []string     `json:"available_markets"`
	DurationMS       int64        `json:"duration_ms"`
	Explicit         bool         `json:"explicit"`
	ExternalURLs     ExternalURLs `json:"external_urls"`
	Href             string       `json:"href"`
	ID               string       `json:"id"`
	IsLocal          bool         `json:"is_local"`
	Name             string       `json:"name"`
	PreviewURL       *string      `json:"preview_url"`
	Type             string       `json:"type"`
	URI              string       `json:"uri"`
}

// Page is the paging envelope shared by list endpoints.
type Page[T any] struct {
	Href     string  `json:"href"`
	Items    []T     `json:"items"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Total    int     `json:"total"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// Tracks is a page of tracks.
type Tracks = Page[Track]

// ArtistAlbums is a page of an artist's albums.
type ArtistAlbums = Page[Album]

// PlaylistPage is a page of the current user's playlists.
type PlaylistPage = Page[Playlist]

// User is a public or private user profile.
type User struct {
	DisplayName  *string      `json:"display_name"`
	Email        string       `json:"email"`
	Country      string       `json:"country"`
	Product      string       `json:"product"`
	ExternalURLs ExternalURLs `json:"external_urls"`
	Followers    *Followers   `json:"followers"`
	Href         string       `json:"href"`
	ID           string       `json:"id"`
	Images       []Image      `json:"images"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
}

// Name returns the display name, falling back to the user ID.
func (u User) Name() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	return u.ID
}

// Playlist is a simplified playlist object.
type Playlist struct {
	Collaborative bool          `json:"collaborative"`
	Description   *string       `json:"description"`
	ExternalURLs  ExternalURLs  `json:"external_urls"`
	Href          string        `json:"href"`
	ID            string        `json:"id"`
	Images        []Image       `json:"images"`
	Name          string        `json:"name"`
	Owner         User          `json:"owner"`
	Public        *bool         `json:"public"`
	Tracks        PlaylistTotal `json:"tracks"`
	URI           string        `json:"uri"`
}

// PlaylistTotal is the track reference on a simplified playlist.
type PlaylistTotal struct {
	Href  string `json:"href"`
	Total int    `json:"total"`
}

// Device is a Spotify Connect device.
type Device struct {
	ID               *string `json:"id"`
	IsActive         bool    `json:"is_active"`
	IsPrivateSession bool    `json:"is_private_session"`
	IsRestricted     bool    `json:"is_restricted"`
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	VolumePercent    *int    `json:"volume_percent"`
}

// PlaybackContext is the album, artist or playlist the current item plays from.
type PlaybackContext struct {
	ExternalURLs ExternalURLs `json:"external_urls"`
	Href         string       `json:"href"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
}

// Playback is the user's current playback state.
type Playback struct {
	Device               Device           `json:"device"`
	ShuffleState         bool             `json:"shuffle_state"`
	RepeatState          string           `json:"repeat_state"`
	Timestamp            int64            `json:"timestamp"`
	Context              *PlaybackContext `json:"context"`
	ProgressMS           *int64           `json:"progress_ms"`
	Item                 *Track           `json:"item"`
	CurrentlyPlayingType string           `json:"currently_playing_type"`
	IsPlaying            bool             `json:"is_playing"`
}

// Queue is the user's playback queue.
type Queue struct {
	CurrentlyPlaying *Track  `json:"currently_playing"`
	Queue            []Track `json:"queue"`
}

// IncludeGroup filters the albums returned for an artist.
type IncludeGroup string

const (
	IncludeAlbum       IncludeGroup = "album"
	IncludeSingle      IncludeGroup = "single"
	IncludeAppearsOn   IncludeGroup = "appears_on"
	IncludeCompilation IncludeGroup = "compilation"
)

// FollowType is the kind of object followed or unfollowed.
type FollowType string

const (
	FollowArtist FollowType = "artist"
	FollowUser   FollowType = "user"
)
