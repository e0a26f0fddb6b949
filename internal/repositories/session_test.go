package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spotapi/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSessionRepository(t *testing.T) {
	t.Run("Save", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		s := &StoredSession{ClientID: "cid", AccessToken: "A", RefreshToken: "R", Scope: "user-read-email"}

		if err := repo.Save(s); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		if s.ID == "" {
			t.Error("session ID should be set after save")
		}
		if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
			t.Error("timestamps should be set after save")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		s := &StoredSession{ClientID: "cid", AccessToken: "A", RefreshToken: "R", ExpiresAt: &expires}

		if err := repo.Save(s); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		got, err := repo.Get("cid")
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}

		if got.ID != s.ID {
			t.Errorf("expected ID %s, got %s", s.ID, got.ID)
		}
		if got.AccessToken != "A" || got.RefreshToken != "R" {
			t.Errorf("unexpected tokens: %q / %q", got.AccessToken, got.RefreshToken)
		}
		if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
			t.Errorf("expected expiry %v, got %v", expires, got.ExpiresAt)
		}
	})

	t.Run("Save Updates Existing Row", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		repo.now = fixedClock(first)

		s := &StoredSession{ClientID: "cid", AccessToken: "A1", RefreshToken: "R", Scope: "streaming"}
		if err := repo.Save(s); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		id := s.ID

		repo.now = fixedClock(first.Add(time.Hour))
		refreshed := &StoredSession{ClientID: "cid", AccessToken: "A2"}
		if err := repo.Save(refreshed); err != nil {
			t.Fatalf("failed to update session: %v", err)
		}

		if refreshed.ID != id {
			t.Errorf("expected ID to stay %s, got %s", id, refreshed.ID)
		}
		if refreshed.AccessToken != "A2" {
			t.Errorf("expected access token A2, got %s", refreshed.AccessToken)
		}
		if refreshed.RefreshToken != "R" {
			t.Errorf("empty refresh token should keep the stored one, got %q", refreshed.RefreshToken)
		}
		if refreshed.Scope != "streaming" {
			t.Errorf("empty scope should keep the stored one, got %q", refreshed.Scope)
		}
		if !refreshed.UpdatedAt.After(refreshed.CreatedAt) {
			t.Errorf("expected updated_at %v after created_at %v", refreshed.UpdatedAt, refreshed.CreatedAt)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		for i, id := range []string{"older", "newer"} {
			repo.now = fixedClock(base.Add(time.Duration(i) * time.Minute))
			if err := repo.Save(&StoredSession{ClientID: id, AccessToken: "A"}); err != nil {
				t.Fatalf("failed to save session %s: %v", id, err)
			}
		}

		sessions, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("expected 2 sessions, got %d", len(sessions))
		}
		if sessions[0].ClientID != "newer" {
			t.Errorf("expected most recent session first, got %s", sessions[0].ClientID)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Save(&StoredSession{ClientID: "cid", AccessToken: "A"}); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		if err := repo.Delete("cid"); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}

		if _, err := repo.Get("cid"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
		}
	})
}

func TestSessionRepositoryErrors(t *testing.T) {
	t.Run("Save Without Client ID", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Save(&StoredSession{AccessToken: "A"}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Get NotFound", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if _, err := repo.Get("nonexistent"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Delete NotFound", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Delete("nonexistent"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSessionRepository(db)
		db.Close()

		if err := repo.Save(&StoredSession{ClientID: "cid"}); err == nil {
			t.Error("expected error saving to a closed database")
		}
		if _, err := repo.List(); err == nil {
			t.Error("expected error listing from a closed database")
		}
	})
}

func TestStoredSessionExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	tc := []struct {
		name string
		at   *time.Time
		want bool
	}{
		{name: "no expiry", at: nil, want: false},
		{name: "expired", at: &past, want: true},
		{name: "at expiry", at: &now, want: true},
		{name: "still valid", at: &future, want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			s := &StoredSession{ExpiresAt: tt.at}
			if got := s.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}
