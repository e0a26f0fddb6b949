package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotapi/internal/shared"
)

// StoredSession is a persisted Spotify session, keyed by the application's client id.
type StoredSession struct {
	ID           string
	ClientID     string
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token is known to have expired at now.
// A session without a recorded expiry is never considered expired.
func (s *StoredSession) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// SessionRepository persists one [StoredSession] per client id.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Save inserts the session or updates the row with the same client id.
//
// An empty refresh token keeps the stored one, matching how a token refresh leaves the refresh token alone.
// On return, ID, CreatedAt and UpdatedAt reflect the stored row.
func (r *SessionRepository) Save(s *StoredSession) error {
	if s.ClientID == "" {
		return fmt.Errorf("%w: client id", shared.ErrMissingArgument)
	}

	now := r.now().UTC()
	query := `
		INSERT INTO sessions (id, client_id, access_token, refresh_token, scope, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token = '' THEN sessions.refresh_token ELSE excluded.refresh_token END,
			scope = CASE WHEN excluded.scope = '' THEN sessions.scope ELSE excluded.scope END,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	var expiresAt sql.NullTime
	if s.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: s.ExpiresAt.UTC(), Valid: true}
	}

	_, err := r.db.Exec(query, shared.GenerateID(), s.ClientID, s.AccessToken, s.RefreshToken, s.Scope, expiresAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	stored, err := r.Get(s.ClientID)
	if err != nil {
		return err
	}
	*s = *stored
	return nil
}

// Get retrieves the session stored for clientID
func (r *SessionRepository) Get(clientID string) (*StoredSession, error) {
	query := `
		SELECT id, client_id, access_token, refresh_token, scope, expires_at, created_at, updated_at
		FROM sessions
		WHERE client_id = ?
	`

	s, err := scanSession(r.db.QueryRow(query, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return s, nil
}

// List retrieves every stored session, most recently updated first
func (r *SessionRepository) List() ([]*StoredSession, error) {
	query := `
		SELECT id, client_id, access_token, refresh_token, scope, expires_at, created_at, updated_at
		FROM sessions
		ORDER BY updated_at DESC, client_id ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*StoredSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// Delete removes the session stored for clientID
func (r *SessionRepository) Delete(clientID string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE client_id = ?`, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, clientID)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*StoredSession, error) {
	var (
		s         StoredSession
		expiresAt sql.NullTime
	)

	err := row.Scan(&s.ID, &s.ClientID, &s.AccessToken, &s.RefreshToken, &s.Scope, &expiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		s.ExpiresAt = &t
	}
	return &s, nil
}
