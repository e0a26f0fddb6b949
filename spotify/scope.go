package spotify

import (
	"slices"
	"strings"
)

// Scope is a named permission grant requested during authorization.
//
// See https://developer.spotify.com/documentation/web-api/concepts/scopes
type Scope string

const (
	// Images
	ScopeUGCImageUpload Scope = "ugc-image-upload"

	// Spotify Connect
	ScopeUserModifyPlaybackState  Scope = "user-modify-playback-state"
	ScopeUserReadPlaybackState    Scope = "user-read-playback-state"
	ScopeUserReadCurrentlyPlaying Scope = "user-read-currently-playing"

	// Follow
	ScopeUserFollowModify Scope = "user-follow-modify"
	ScopeUserFollowRead   Scope = "user-follow-read"

	// Listening history
	ScopeUserReadRecentlyPlayed   Scope = "user-read-recently-played"
	ScopeUserReadPlaybackPosition Scope = "user-read-playback-position"
	ScopeUserTopRead              Scope = "user-top-read"

	// Playlists
	ScopePlaylistReadCollaborative Scope = "playlist-read-collaborative"
	ScopePlaylistModifyPublic      Scope = "playlist-modify-public"
	ScopePlaylistReadPrivate       Scope = "playlist-read-private"
	ScopePlaylistModifyPrivate     Scope = "playlist-modify-private"

	// Playback
	ScopeAppRemoteControl Scope = "app-remote-control"
	ScopeStreaming        Scope = "streaming"

	// Users
	ScopeUserReadEmail   Scope = "user-read-email"
	ScopeUserReadPrivate Scope = "user-read-private"

	// Library
	ScopeUserLibraryModify Scope = "user-library-modify"
	ScopeUserLibraryRead   Scope = "user-library-read"
)

// AllScopes is the complete scope vocabulary.
var AllScopes = []Scope{
	ScopeUGCImageUpload,
	ScopeUserModifyPlaybackState, ScopeUserReadPlaybackState, ScopeUserReadCurrentlyPlaying,
	ScopeUserFollowModify, ScopeUserFollowRead,
	ScopeUserReadRecentlyPlayed, ScopeUserReadPlaybackPosition, ScopeUserTopRead,
	ScopePlaylistReadCollaborative, ScopePlaylistModifyPublic, ScopePlaylistReadPrivate, ScopePlaylistModifyPrivate,
	ScopeAppRemoteControl, ScopeStreaming,
	ScopeUserReadEmail, ScopeUserReadPrivate,
	ScopeUserLibraryModify, ScopeUserLibraryRead,
}

// ParseScope reports whether s names a known [Scope].
func ParseScope(s string) (Scope, bool) {
	for _, sc := range AllScopes {
		if string(sc) == s {
			return sc, true
		}
	}
	return "", false
}

// Scopes is a set of [Scope] values that remembers insertion order.
//
// The zero value is an empty set ready to use. Scopes is a plain value: a copy can be extended
// without affecting the original.
type Scopes struct {
	order []Scope
}

// NewScopes returns a set holding scopes in first-seen order, duplicates dropped.
func NewScopes(scopes ...Scope) Scopes {
	var s Scopes
	s.Add(scopes...)
	return s
}

// Add appends each scope not already present.
func (s *Scopes) Add(scopes ...Scope) {
	for _, sc := range scopes {
		if s.Contains(sc) {
			continue
		}
		// Clip so an append never writes into an array shared with a copy.
		s.order = append(slices.Clip(s.order), sc)
	}
}

// Contains reports whether sc is in the set.
func (s Scopes) Contains(sc Scope) bool {
	return slices.Contains(s.order, sc)
}

func (s Scopes) Len() int { return len(s.order) }

// Slice returns a copy of the scopes in insertion order.
func (s Scopes) Slice() []Scope {
	return append([]Scope(nil), s.order...)
}

// String joins the scopes with a single space, in insertion order.
func (s Scopes) String() string {
	parts := make([]string, len(s.order))
	for i, sc := range s.order {
		parts[i] = string(sc)
	}
	return strings.Join(parts, " ")
}
