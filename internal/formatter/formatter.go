// package formatter provides functions to export playlist data to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatText     Format = "txt"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatCSV, FormatMarkdown, FormatJSON}

// ParseFormat accepts a format name or its common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// Export renders a playlist in format.
func Export(p models.Playlist, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return ExportToText(p)
	case FormatCSV:
		return ExportToCSV(p)
	case FormatMarkdown:
		return ExportToMarkdown(p)
	case FormatJSON:
		return ExportToJSON(p)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

// ExportToCSV converts a playlist to CSV format with columns: Position, Title, Artist, Album, Year, Genres
func ExportToCSV(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artist", "Album", "Year", "Genres"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range p.Songs.All() {
		year := ""
		if song.Year > 0 {
			year = strconv.Itoa(song.Year)
		}
		record := []string{strconv.Itoa(i + 1), song.Title, song.Artist, song.Album, year, strings.Join(song.Genres, ";")}
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

// ExportToMarkdown converts a playlist to Markdown with a numbered track list
func ExportToMarkdown(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)
	fmt.Fprintf(&buf, "**Songs**: %d\n\n", p.Songs.Len())

	buf.WriteString("## Songs\n\n")
	for i, song := range p.Songs.All() {
		details := ""
		switch {
		case song.Album != "" && song.Year > 0:
			details = fmt.Sprintf(" (%s, %d)", song.Album, song.Year)
		case song.Album != "":
			details = fmt.Sprintf(" (%s)", song.Album)
		case song.Year > 0:
			details = fmt.Sprintf(" (%d)", song.Year)
		}
		fmt.Fprintf(&buf, "%d. %s%s\n", i+1, markdownSong(song), details)
	}
	return buf.Bytes(), nil
}

func markdownSong(s models.Song) string {
	if s.Artist == "" {
		return "**" + s.Title + "**"
	}
	return fmt.Sprintf("%s - **%s**", s.Artist, s.Title)
}

// ExportToText converts a playlist to plain text format
func ExportToText(p models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	fmt.Fprintf(&buf, "Songs: %d\n\n", p.Songs.Len())
	for i, song := range p.Songs.All() {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, song)
	}
	return buf.Bytes(), nil
}

// ExportToJSON writes the playlist as the same document the store persists.
func ExportToJSON(p models.Playlist) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode playlist: %w", err)
	}
	return append(data, '\n'), nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Filename derives a file name from the playlist name, e.g. "road trip" -> "road_trip.md".
func Filename(p models.Playlist, format Format) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(p.Name, "_"), "_.")
	if base == "" {
		base = "playlist"
	}
	return base + "." + string(format)
}

// WriteExport renders p in format and writes it into dir, returning the file path.
//
// Defaults to the current directory and [Filename].
func WriteExport(p models.Playlist, format Format, dir string) (string, error) {
	data, err := Export(p, format)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, Filename(p, format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}
