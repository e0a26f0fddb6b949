// package formatter renders Spotify resources as plain text, CSV, Markdown or JSON
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/spotapi/internal/shared"
	"github.com/desertthunder/spotapi/spotify"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common alias ("txt", "md").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "plain":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension, dot included, for f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// ArtistNames joins the artist names of a track or album with ", ".
func ArtistNames(artists []spotify.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func albumName(t spotify.Track) string {
	if t.Album == nil {
		return ""
	}
	return t.Album.Name
}

// TracksToCSV renders tracks with columns: ID, Name, Artists, Album, Duration, URI
func TracksToCSV(tracks []spotify.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Album", "Duration", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			ArtistNames(track.Artists),
			albumName(track),
			strconv.FormatInt(track.DurationMS, 10),
			track.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToMarkdown renders a titled track list, with an optional cover image
func TracksToMarkdown(title string, tracks []spotify.Track, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		albumPart := ""
		if name := albumName(track); name != "" {
			albumPart = fmt.Sprintf(" (%s)", name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, ArtistNames(track.Artists), track.Name, albumPart, shared.FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// TracksToText renders a titled, numbered track list
func TracksToText(title string, tracks []spotify.Track) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "%s\n", title)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tracks))

	for i, track := range tracks {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, ArtistNames(track.Artists), track.Name, shared.FormatDuration(track.DurationMS))
	}

	return buf.Bytes(), nil
}

// RenderTracks renders tracks in format f.
func RenderTracks(f Format, title string, tracks []spotify.Track) ([]byte, error) {
	switch f {
	case FormatCSV:
		return TracksToCSV(tracks)
	case FormatMarkdown:
		return TracksToMarkdown(title, tracks, "")
	case FormatJSON:
		return shared.MarshalJSON(tracks, true)
	default:
		return TracksToText(title, tracks)
	}
}

// PlaylistsToText renders one block per playlist: name, description, id, track count and visibility.
func PlaylistsToText(playlists []spotify.Playlist) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, p.Name)
		if p.Description != nil && *p.Description != "" {
			fmt.Fprintf(&buf, "   Description: %s\n", *p.Description)
		}
		fmt.Fprintf(&buf, "   ID: %s\n", p.ID)
		fmt.Fprintf(&buf, "   Owner: %s\n", p.Owner.Name())
		fmt.Fprintf(&buf, "   Tracks: %d\n", p.Tracks.Total)
		fmt.Fprintf(&buf, "   Visibility: %s\n\n", visibility(p.Public))
	}

	return buf.Bytes()
}

func visibility(public *bool) string {
	if public == nil {
		return "Unknown"
	}
	return shared.VisibilityString(*public)
}

// PlaybackSummary describes the current playback in a few lines. A nil playback means nothing is playing.
func PlaybackSummary(p *spotify.Playback) string {
	if p == nil || p.Item == nil {
		return "Nothing is playing.\n"
	}

	var b strings.Builder
	state := "Paused"
	if p.IsPlaying {
		state = "Playing"
	}

	fmt.Fprintf(&b, "%s: %s - %s\n", state, ArtistNames(p.Item.Artists), p.Item.Name)
	if name := albumName(*p.Item); name != "" {
		fmt.Fprintf(&b, "Album: %s\n", name)
	}

	progress := int64(0)
	if p.ProgressMS != nil {
		progress = *p.ProgressMS
	}
	fmt.Fprintf(&b, "Progress: %s / %s\n", shared.FormatDuration(progress), shared.FormatDuration(p.Item.DurationMS))

	device := p.Device.Name
	if p.Device.VolumePercent != nil {
		device = fmt.Sprintf("%s (volume %d%%)", device, *p.Device.VolumePercent)
	}
	fmt.Fprintf(&b, "Device: %s\n", device)
	fmt.Fprintf(&b, "Shuffle: %t, Repeat: %s\n", p.ShuffleState, p.RepeatState)

	return b.String()
}

// QueueToText renders the currently playing track followed by the queue.
func QueueToText(q *spotify.Queue) []byte {
	if q == nil {
		return []byte("Queue is unavailable.\n")
	}

	var buf bytes.Buffer
	if q.CurrentlyPlaying != nil {
		fmt.Fprintf(&buf, "Now: %s - %s\n\n", ArtistNames(q.CurrentlyPlaying.Artists), q.CurrentlyPlaying.Name)
	}
	fmt.Fprintf(&buf, "Up next (%d):\n", len(q.Queue))
	for i, t := range q.Queue {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, ArtistNames(t.Artists), t.Name)
	}
	return buf.Bytes()
}

// DownloadImage fetches an image with client, which defaults to [http.DefaultClient].
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty image URL", shared.ErrMissingArgument)
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExport describes the files written by [WriteMarkdownExport].
type MarkdownExport struct {
	Directory  string
	Files      []string
	CoverImage string
	// CoverError is set when a cover image was requested but could not be saved.
	CoverError error
}

// WriteMarkdownExport writes {dir}/README.md and, when imageURL is set, {dir}/cover.jpg.
//
// A failed cover download is reported in the result and does not fail the export.
func WriteMarkdownExport(ctx context.Context, client *http.Client, title string, tracks []spotify.Track, dir, imageURL string) (*MarkdownExport, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: output directory", shared.ErrMissingArgument)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExport{Directory: dir, Files: []string{}}

	var coverFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(ctx, client, imageURL)
		if err == nil {
			coverPath := filepath.Join(dir, "cover.jpg")
			if err = os.WriteFile(coverPath, imageData, 0644); err == nil {
				coverFilename = "cover.jpg"
				result.CoverImage = coverPath
				result.Files = append(result.Files, coverPath)
			}
		}
		result.CoverError = err
	}

	mdData, err := TracksToMarkdown(title, tracks, coverFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTracks renders tracks in format f to path.
func WriteTracks(path string, f Format, title string, tracks []spotify.Track) error {
	data, err := RenderTracks(f, title, tracks)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
