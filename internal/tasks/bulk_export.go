package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotapi/internal/formatter"
	"github.com/desertthunder/spotapi/internal/shared"
	"github.com/desertthunder/spotapi/spotify"
	"golang.org/x/time/rate"
)

// AlbumSource is the part of [spotify.Client] the exporter reads from.
type AlbumSource interface {
	Albums(ctx context.Context, ids ...string) ([]spotify.Album, error)
	AlbumTracks(ctx context.Context, albumID string, limit, offset int) (*spotify.Tracks, error)
}

// BulkExportOpts contains configuration for bulk album exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format: text, csv, markdown or json
	OutputDir  string           // Base output directory (default: spotify_export_{epoch})
	NumWorkers int              // Concurrent writers (default: 5, at most 10)
	RateLimit  float64          // API requests per second (default: 5)
	HTTPClient *http.Client     // Used for cover images
}

// AlbumExportResult describes the export of one album.
type AlbumExportResult struct {
	AlbumID   string   `json:"album_id"`
	AlbumName string   `json:"album_name"`
	Tracks    int      `json:"tracks"`
	Files     []string `json:"files"`
	Success   bool     `json:"success"`
	Error     error    `json:"-"`
	Message   string   `json:"error,omitempty"`

	index int
}

// BulkExportResult summarizes a bulk export. Results follow the order of the requested ids.
type BulkExportResult struct {
	TotalAlbums       int                 `json:"total_albums"`
	SuccessfulExports int                 `json:"successful_exports"`
	FailedExports     int                 `json:"failed_exports"`
	OutputDirectory   string              `json:"output_directory"`
	ManifestPath      string              `json:"-"`
	Results           []AlbumExportResult `json:"results"`
}

type albumExportJob struct {
	index  int
	album  spotify.Album
	tracks []spotify.Track
}

// Exporter exports albums from an [AlbumSource].
type Exporter struct {
	source AlbumSource
	logger *log.Logger
}

// NewExporter creates an Exporter. A nil logger discards.
func NewExporter(source AlbumSource, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Exporter{source: source, logger: logger}
}

// CollectTracks returns every track of album, following pages after the embedded first one.
//
// Tracks without an album get a simplified copy of album so exports can name it.
func CollectTracks(ctx context.Context, source AlbumSource, album spotify.Album) ([]spotify.Track, error) {
	return collectTracks(ctx, source, album, nil)
}

func collectTracks(ctx context.Context, source AlbumSource, album spotify.Album, limiter *rate.Limiter) ([]spotify.Track, error) {
	var tracks []spotify.Track
	if album.Tracks != nil {
		tracks = append(tracks, album.Tracks.Items...)
	}

	for len(tracks) < album.TotalTracks {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		page, err := source.AlbumTracks(ctx, album.ID, 50, len(tracks))
		if err != nil {
			return nil, err
		}
		if page == nil || len(page.Items) == 0 {
			return tracks, fmt.Errorf("%w: got %d of %d tracks", shared.ErrAPIRequest, len(tracks), album.TotalTracks)
		}
		tracks = append(tracks, page.Items...)
	}

	simple := &spotify.Album{ID: album.ID, Name: album.Name, URI: album.URI}
	for i := range tracks {
		if tracks[i].Album == nil {
			tracks[i].Album = simple
		}
	}
	return tracks, nil
}

// BulkExport exports multiple albums concurrently with rate limiting and progress tracking.
//
// Albums are fetched one at a time under the rate limit and handed to a pool of workers that write the
// files. A failed album is recorded in the result and does not stop the others. A manifest summarizing
// the run is written to export_manifest.json in the output directory.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: album source not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: album ids", shared.ErrMissingArgument)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotify_export_%d", time.Now().Unix())
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalAlbums:     len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]AlbumExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan albumExportJob, len(ids))
	results := make(chan AlbumExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(prog, fetchingAlbumUpdate(i+1, len(ids), id))

			album, tracks, err := e.fetch(ctx, id, limiter)
			if err != nil {
				e.logger.Debug("album fetch failed", "album", id, "error", err)
				results <- AlbumExportResult{
					AlbumID:   id,
					AlbumName: fmt.Sprintf("Unknown (%s)", id),
					Error:     fmt.Errorf("failed to fetch album: %w", err),
					index:     i,
				}
				continue
			}

			jobs <- albumExportJob{index: i, album: album, tracks: tracks}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.Message = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(ids), res))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].index < result.Results[j].index
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	sendProgress(prog, manifestUpdate(manifestPath))
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// fetch loads an album and all of its tracks.
func (e *Exporter) fetch(ctx context.Context, id string, limiter *rate.Limiter) (spotify.Album, []spotify.Track, error) {
	albums, err := e.source.Albums(ctx, id)
	if err != nil {
		return spotify.Album{}, nil, err
	}
	if len(albums) == 0 {
		return spotify.Album{}, nil, fmt.Errorf("%w: album %s unavailable", shared.ErrAPIRequest, id)
	}

	tracks, err := collectTracks(ctx, e.source, albums[0], limiter)
	if err != nil {
		return albums[0], nil, err
	}
	return albums[0], tracks, nil
}

// exportWorker is a worker goroutine that exports albums from the jobs channel.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan albumExportJob,
	results chan<- AlbumExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportAlbum(ctx, job, opts)
	}
}

// Title is the heading used for an album's exports.
func Title(album spotify.Album) string {
	if artists := formatter.ArtistNames(album.Artists); artists != "" {
		return fmt.Sprintf("%s - %s", artists, album.Name)
	}
	return album.Name
}

// exportAlbum writes a single album in the requested format.
func (e *Exporter) exportAlbum(ctx context.Context, j albumExportJob, opts BulkExportOpts) AlbumExportResult {
	result := AlbumExportResult{
		AlbumID:   j.album.ID,
		AlbumName: j.album.Name,
		Tracks:    len(j.tracks),
		Files:     []string{},
		index:     j.index,
	}
	title := Title(j.album)

	switch opts.Format {
	case formatter.FormatMarkdown:
		var imageURL string
		if len(j.album.Images) > 0 {
			imageURL = j.album.Images[0].URL
		}

		md, err := formatter.WriteMarkdownExport(ctx, opts.HTTPClient, title, j.tracks, filepath.Join(opts.OutputDir, j.album.ID), imageURL)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		if md.CoverError != nil {
			e.logger.Warn("failed to save cover image", "album", j.album.ID, "error", md.CoverError)
		}
		result.Files = md.Files
	default:
		path := filepath.Join(opts.OutputDir, j.album.ID+opts.Format.Extension())
		if err := formatter.WriteTracks(path, opts.Format, title, j.tracks); err != nil {
			result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
