package tasks

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

const (
	DefaultBatchSize = 500

	// maxLineSize bounds one JSON line. Dumps with long genre lists exceed bufio's 64KiB default.
	maxLineSize = 1 << 20
	// maxReportedErrors bounds ImportResult.Errors; later failures are only counted.
	maxReportedErrors = 20
)

// ImportOpts configure [Engine.ImportCatalog].
type ImportOpts struct {
	Source    string // Name shown in progress messages
	BatchSize int    // Songs per transaction (default: 500)
}

// LineError describes one skipped input line.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

// ImportResult summarises a catalog import.
type ImportResult struct {
	Lines      int         // Non-blank lines read
	Imported   int         // Songs newly stored
	Duplicates int         // Valid songs already in the catalog
	Skipped    int         // Lines that could not be parsed
	Errors     []LineError // The first skipped lines
}

// catalogRow is one line of a catalog dump.
type catalogRow struct {
	Title   string        `json:"title"`
	Artist  string        `json:"artist"`
	Album   string        `json:"album"`
	Year    flexibleYear  `json:"year"`
	Release flexibleYear  `json:"release"`
	Genre   models.Genres `json:"genre"`
}

// flexibleYear accepts 1975, "1975", "1975-10-31", "" and null.
type flexibleYear int

func (y *flexibleYear) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*y = 0
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*y = flexibleYear(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("year must be a number or a string, got %s", data)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*y = 0
		return nil
	}
	if len(s) > 4 {
		s = s[:4]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid year %q", s)
	}
	*y = flexibleYear(n)
	return nil
}

func (r catalogRow) song() (models.Song, error) {
	song := models.Song{
		Title:  shared.CollapseSpaces(r.Title),
		Artist: shared.CollapseSpaces(r.Artist),
		Album:  shared.CollapseSpaces(r.Album),
		Year:   int(r.Year),
		Genres: r.Genre,
	}
	if song.Year == 0 {
		song.Year = int(r.Release)
	}
	return song, song.Validate()
}

// ImportCatalog reads JSON Lines from r and stores every valid song.
//
// Malformed lines are skipped and reported. A storage failure aborts the
// import; batches already stored stay stored.
func (e *Engine) ImportCatalog(ctx context.Context, r io.Reader, opts ImportOpts, progress chan<- ProgressUpdate) (*ImportResult, error) {
	if e.cacher == nil {
		return nil, fmt.Errorf("%w: catalog store not initialized", shared.ErrServiceUnavailable)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Source == "" {
		opts.Source = "input"
	}

	e.sendProgress(progress, readingCatalogUpdate(opts.Source))

	result := &ImportResult{}
	batch := make([]models.Song, 0, opts.BatchSize)
	batches := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := e.cacher.CacheSongs(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to store batch %d: %w", batches+1, err)
		}
		batches++
		result.Imported += n
		result.Duplicates += len(batch) - n
		e.sendProgress(progress, importBatchUpdate(batches, result))
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Lines++

		var row catalogRow
		err := json.Unmarshal(text, &row)
		var song models.Song
		if err == nil {
			song, err = row.song()
		}
		if err != nil {
			result.Skipped++
			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, LineError{Line: line, Err: err})
			}
			e.sendProgress(progress, skippedRowUpdate(line, err))
			continue
		}

		batch = append(batch, song)
		if len(batch) == opts.BatchSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			err = fmt.Errorf("line %d exceeds %d bytes: %w", line+1, maxLineSize, err)
		}
		return result, fmt.Errorf("failed to read catalog: %w", err)
	}
	if err := flush(); err != nil {
		return result, err
	}

	e.logger.Info("catalog import finished", "source", opts.Source, "lines", result.Lines,
		"imported", result.Imported, "duplicates", result.Duplicates, "skipped", result.Skipped)
	return result, nil
}
