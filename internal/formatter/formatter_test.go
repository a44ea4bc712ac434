package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/musicagent/internal/models"
	"github.com/desertthunder/musicagent/internal/shared"
	th "github.com/desertthunder/musicagent/internal/testing"
)

func testPlaylist() models.Playlist {
	return models.Playlist{Name: "road trip", Songs: models.NewSongList(
		models.Song{Title: "Song One", Artist: "Artist One", Album: "Album One", Year: 1999, Genres: models.Genres{"rock", "indie"}},
		models.Song{Title: "Song, Two", Artist: "Artist Two"},
		models.Song{Title: "Untitled"},
	)}
}

func TestExporters(t *testing.T) {
	p := testPlaylist()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(p)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header and 3 rows, got %d lines", len(lines))
		}
		if lines[0] != "Position,Title,Artist,Album,Year,Genres" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "1,Song One,Artist One,Album One,1999,rock;indie" {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if lines[2] != `2,"Song, Two",Artist Two,,,` {
			t.Errorf("commas should be quoted and missing fields empty, got: %s", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(p)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# road trip\n",
			"**Songs**: 3",
			"1. Artist One - **Song One** (Album One, 1999)",
			"2. Artist Two - **Song, Two**\n",
			"3. **Untitled**",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(p)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		want := "Playlist: road trip\nSongs: 3\n\n1. Song One by Artist One\n2. Song, Two by Artist Two\n3. Untitled\n"
		if string(data) != want {
			t.Errorf("got:\n%s\nwant:\n%s", data, want)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(p)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded models.Playlist
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("export is not valid JSON: %v", err)
		}
		if decoded.Name != p.Name || decoded.Songs.Len() != 3 {
			t.Errorf("unexpected playlist %+v", decoded)
		}
		if !strings.Contains(string(data), `"genre": [`) {
			t.Errorf("genres should use the stored field name, got:\n%s", data)
		}
	})

	t.Run("Empty playlist", func(t *testing.T) {
		for _, f := range Formats {
			if _, err := Export(models.Playlist{Name: "empty"}, f); err != nil {
				t.Errorf("%s export of an empty playlist failed: %v", f, err)
			}
		}
	})
}

func TestParseFormat(t *testing.T) {
	tt := []struct {
		in   string
		want Format
	}{
		{in: "txt", want: FormatText},
		{in: "Text", want: FormatText},
		{in: ".csv", want: FormatCSV},
		{in: "markdown", want: FormatMarkdown},
		{in: "JSON", want: FormatJSON},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if err != nil || got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestFilename(t *testing.T) {
	tt := []struct {
		name string
		want string
	}{
		{name: "road trip", want: "road_trip.md"},
		{name: "rock/metal", want: "rock_metal.md"},
		{name: "../etc", want: "etc.md"},
		{name: "???", want: "playlist.md"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := Filename(models.Playlist{Name: tc.name}, FormatMarkdown); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWriteExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := WriteExport(testPlaylist(), FormatCSV, dir)
	if err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	if path != filepath.Join(dir, "road_trip.csv") {
		t.Errorf("unexpected path %s", path)
	}

	th.AssertFileExists(t, path)
	if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "Position,Title") {
		t.Errorf("unexpected file content: %s", content)
	}
}
