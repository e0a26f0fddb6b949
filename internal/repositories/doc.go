// Package repositories implements SQLite persistence for Spotify sessions.
//
// A [SessionRepository] keeps one row per application client id so the CLI can reuse the access and refresh
// tokens of an earlier run. Saving is an upsert: a refresh that reports no new refresh token keeps the stored one.
//
// The schema lives in the embedded migrations of the shared package; open databases with [shared.OpenDatabase].
package repositories
