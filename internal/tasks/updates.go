package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchAlbum Phase = iota
	ExportAlbum
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchAlbum:
		return "fetch_album"
	case ExportAlbum:
		return "export_album"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends update without blocking; updates are dropped when nobody keeps up.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingAlbumUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbum,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching album %s...", step, total, id),
	}
}

func exportCompletedUpdate(step, total int, res AlbumExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportAlbum,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks, %d files)", step, total, res.AlbumName, res.Tracks, len(res.Files)),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res AlbumExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportAlbum,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.AlbumName, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest %s", path),
	}
}
