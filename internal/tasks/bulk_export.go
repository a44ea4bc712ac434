package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/musicagent/internal/formatter"
	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format: txt, csv, md, json
	OutputDir  string           // Base output directory (default: {username}_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4)
	Playlists  []string         // Names to export; empty exports every playlist
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistName string `json:"playlist"`
	Songs        int    `json:"songs"`
	File         string `json:"file,omitempty"`
	Success      bool   `json:"success"`
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// BulkExportResult summarises a bulk export.
type BulkExportResult struct {
	Username          string                 `json:"username"`
	Format            formatter.Format       `json:"format"`
	ExportedAt        time.Time              `json:"exported_at"`
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

// BulkExport writes the user's playlists to files concurrently and a manifest summarising the results.
//
// A playlist that fails to render or write is reported in the result; it does not stop the others.
func (e *Engine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, username string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.playlists == nil {
		return nil, fmt.Errorf("%w: playlist store not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("%s_export_%d", username, time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}

	e.sendProgress(prog, loadingPlaylistsUpdate(username))
	all, err := e.playlists.ListPlaylists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlists: %w", err)
	}

	selected, err := selectPlaylists(all, opts.Playlists)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Username:        username,
		Format:          opts.Format,
		ExportedAt:      time.Now().UTC(),
		TotalPlaylists:  len(selected),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(selected)),
	}

	jobs := make(chan models.Playlist, len(selected))
	results := make(chan PlaylistExportResult, len(selected))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, p := range selected {
			select {
			case <-ctx.Done():
				return
			case jobs <- p:
				e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(selected), p.Name))
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(selected), res))
		} else {
			result.FailedExports++
			res.ErrorMessage = res.Error.Error()
			e.sendProgress(prog, exportFailedUpdate(completed, len(selected), res.PlaylistName, res.Error))
		}
		result.Results = append(result.Results, res)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Workers finish in any order; the manifest lists playlists in the user's order.
	order := make(map[string]int, len(selected))
	for i, p := range selected {
		order[p.Name] = i
	}
	slices.SortFunc(result.Results, func(a, b PlaylistExportResult) int {
		return order[a.PlaylistName] - order[b.PlaylistName]
	})

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("bulk export finished", "username", username, "format", opts.Format,
		"exported", result.SuccessfulExports, "failed", result.FailedExports, "dir", opts.OutputDir)
	return result, nil
}

// selectPlaylists keeps the named playlists, in the user's order. Unknown names are an error.
func selectPlaylists(all []models.Playlist, names []string) ([]models.Playlist, error) {
	if len(names) == 0 {
		return all, nil
	}
	for _, n := range names {
		if !slices.ContainsFunc(all, func(p models.Playlist) bool { return p.Name == n }) {
			return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, n)
		}
	}
	return slices.DeleteFunc(slices.Clone(all), func(p models.Playlist) bool {
		return !slices.Contains(names, p.Name)
	}), nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan models.Playlist,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for p := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := PlaylistExportResult{PlaylistName: p.Name, Songs: p.Songs.Len()}
		file, err := formatter.WriteExport(p, opts.Format, opts.OutputDir)
		if err != nil {
			res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		} else {
			res.File, res.Success = file, true
		}
		results <- res
	}
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
