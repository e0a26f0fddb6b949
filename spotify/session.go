package spotify

import (
	"fmt"
	"sync"

	"github.com/desertthunder/spotapi/internal/shared"
)

// Credentials identify the application to the authorization server.
//
// They are fixed when the [Client] is built; an empty field counts as absent and is only reported
// when an operation that needs it runs.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// require returns an [shared.ErrPrecondition] naming the first absent field.
func (c Credentials) require(fields ...string) error {
	for _, f := range fields {
		var v string
		switch f {
		case fieldClientID:
			v = c.ClientID
		case fieldClientSecret:
			v = c.ClientSecret
		case fieldRedirectURI:
			v = c.RedirectURI
		}
		if v == "" {
			return fmt.Errorf("%w: %s is not set", shared.ErrPrecondition, f)
		}
	}
	return nil
}

const (
	fieldClientID     = "client_id"
	fieldClientSecret = "client_secret"
	fieldRedirectURI  = "redirect_uri"
)

// Tokens is a point-in-time copy of a [Session].
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Session holds the mutable bearer and refresh tokens of one [Client].
//
// Reads and writes share a single lock so a concurrent refresh can never expose a half-written pair.
// Only the [TokenExchanger] writes to it after construction.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// NewSession returns a session seeded with previously obtained tokens. Either may be empty.
func NewSession(accessToken, refreshToken string) *Session {
	return &Session{accessToken: accessToken, refreshToken: refreshToken}
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Snapshot returns both tokens read under one lock.
func (s *Session) Snapshot() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Tokens{AccessToken: s.accessToken, RefreshToken: s.refreshToken}
}

func (s *Session) store(accessToken, refreshToken string) Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	return Tokens{AccessToken: s.accessToken, RefreshToken: s.refreshToken}
}

func (s *Session) storeAccess(accessToken string) Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	return Tokens{AccessToken: s.accessToken, RefreshToken: s.refreshToken}
}

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrPrecondition, fmt.Sprintf(format, args...))
}

// bearer returns the access token or a precondition error when there is none.
func (s *Session) bearer() (string, error) {
	token := s.AccessToken()
	if token == "" {
		return "", preconditionf("no access token, exchange an authorization code or refresh first")
	}
	return token, nil
}
