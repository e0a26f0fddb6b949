// Package tasks runs long album exports with real-time progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] exports many albums at once:
//   - Fetches each album and every page of its tracks under a shared rate limit
//   - Hands fetched albums to a pool of workers that write the files through package formatter
//   - Records failures per album without stopping the run
//   - Writes export_manifest.json summarizing the results
//
// [CollectTracks] is the single-album building block and is also used directly by the CLI.
//
// # Progress Reporting
//
// Operations take an optional channel of [ProgressUpdate] values holding phase, step counters and a message.
// Updates are sent with select and default so a slow reader never blocks an export.
package tasks
