package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, zero when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ReadCatalog Phase = iota
	ImportSongs
	LoadPlaylists
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case ReadCatalog:
		return "read_catalog"
	case ImportSongs:
		return "import_songs"
	case LoadPlaylists:
		return "load_playlists"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

func readingCatalogUpdate(source string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadCatalog,
		Step:    0,
		Total:   0,
		Message: fmt.Sprintf("Reading catalog from %s...", source),
	}
}

func skippedRowUpdate(line int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadCatalog,
		Step:    line,
		Message: fmt.Sprintf("Skipping line %d: %v", line, err),
	}
}

func importBatchUpdate(batch int, res *ImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportSongs,
		Step:    batch,
		Message: fmt.Sprintf("Batch %d stored (%d imported, %d duplicates so far)", batch, res.Imported, res.Duplicates),
		Data:    *res,
	}
}

func loadingPlaylistsUpdate(username string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loading playlists of %s...", username),
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, res PlaylistExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d songs) -> %s", step, total, res.PlaylistName, res.Songs, res.File),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
