package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/musicagent/internal/shared"
	tu "github.com/desertthunder/musicagent/internal/testing"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(shared.InMemory)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// newTestRunner wires a Runner to a fresh database and a silent language model.
func newTestRunner(t *testing.T, input string) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Logger:    shared.NewLogger(io.Discard),
		Output:    output,
		Input:     strings.NewReader(input),
		DB:        setupTestDB(t),
		Generator: tu.NewScriptedGenerator(),
	})
	return runner, output
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	return rootCommand(r).Run(context.Background(), append([]string{"musicagent", "--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			gen := tu.NewScriptedGenerator()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Generator:  gen,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.generator != gen {
				t.Error("expected generator to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain handles write failure", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

		err := runner.writePlain("test")
		if err == nil || !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected write error, got %v", err)
		}
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for _, cmd := range commands {
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "chat", "serve", "catalog", "playlist", "user"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestConfigure(t *testing.T) {
	t.Run("loads the config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := shared.CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config: %v", err)
		}
		content := strings.Replace(tu.MustReadFile(t, path), "max_candidates = 5", "max_candidates = 3", 1)
		tu.MustWriteFile(t, path, content)

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})
		if err := rootCommand(runner).Run(context.Background(), []string{"musicagent", "--config", path, "setup", "config"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.config.Agent.MaxCandidates != 3 {
			t.Errorf("expected config to be loaded, got max_candidates=%d", runner.config.Agent.MaxCandidates)
		}
	})

	t.Run("rejects an invalid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		tu.MustWriteFile(t, path, "[llm]\nprovider = \"carrier-pigeon\"\n")

		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})
		err := rootCommand(runner).Run(context.Background(), []string{"musicagent", "--config", path, "user", "list"})
		if err == nil || !strings.Contains(err.Error(), "carrier-pigeon") {
			t.Errorf("expected invalid provider error, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config writes the template once", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})

		for range 2 {
			if err := rootCommand(runner).Run(context.Background(), []string{"musicagent", "--config", path, "setup", "config"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		tu.AssertFileExists(t, path)
	})

	t.Run("database, status and rollback", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		tu.MustWriteFile(t, path, "[database]\npath = \""+filepath.ToSlash(filepath.Join(dir, "test.db"))+"\"\n")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})
		args := func(sub string) []string { return []string{"musicagent", "--config", path, "setup", sub} }

		if err := rootCommand(runner).Run(context.Background(), args("database")); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		if err := rootCommand(runner).Run(context.Background(), args("status")); err != nil {
			t.Fatalf("setup status failed: %v", err)
		}
		if strings.Contains(output.String(), "pending") || !strings.Contains(output.String(), "applied") {
			t.Errorf("expected every migration applied:\n%s", output.String())
		}

		output.Reset()
		if err := rootCommand(runner).Run(context.Background(), args("rollback")); err != nil {
			t.Fatalf("setup rollback failed: %v", err)
		}
		if err := rootCommand(runner).Run(context.Background(), args("status")); err != nil {
			t.Fatalf("setup status failed: %v", err)
		}
		if !strings.Contains(output.String(), "pending") {
			t.Errorf("expected a pending migration after rollback:\n%s", output.String())
		}
	})
}

const testCatalog = `{"title": "Bohemian Rhapsody", "artist": "Queen", "album": "A Night at the Opera", "year": 1975, "genre": ["rock"]}
{"title": "Hello", "artist": "Adele", "album": "25", "year": "2015-10-23", "genre": "pop"}
{"title": "Hello", "artist": "Lionel Richie", "album": "Can't Slow Down", "year": 1983, "genre": "soul"}
not json
`

func TestCatalogCommands(t *testing.T) {
	runner, output := newTestRunner(t, testCatalog)

	if err := run(t, runner, "catalog", "import", "-"); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	for _, want := range []string{"Imported: 3", "Skipped 1 lines", "line 4"} {
		if !strings.Contains(output.String(), want) {
			t.Errorf("import output missing %q:\n%s", want, output.String())
		}
	}

	t.Run("search", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "catalog", "search", "hello"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if got := output.String(); !strings.Contains(got, "1. Hello by Adele") || !strings.Contains(got, "2. Hello by Lionel Richie") {
			t.Errorf("unexpected search output:\n%s", got)
		}
	})

	t.Run("search by artist as JSON", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "catalog", "search", "--artist", "adele", "--json", "hello"); err != nil {
			t.Fatalf("search failed: %v", err)
		}

		var songs []map[string]any
		if err := json.Unmarshal(output.Bytes(), &songs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(songs) != 1 || songs[0]["artist"] != "Adele" {
			t.Errorf("unexpected songs %v", songs)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if err := run(t, runner, "catalog", "import", filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})
}

func TestUserAndPlaylistCommands(t *testing.T) {
	runner, output := newTestRunner(t, "")

	if err := run(t, runner, "user", "register", "erik", "--email", "erik@example.com"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := run(t, runner, "user", "register", "erik"); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	output.Reset()
	if err := run(t, runner, "user", "list"); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if got := output.String(); got != "erik (0 playlists)\n" {
		t.Errorf("unexpected user list %q", got)
	}

	store, err := runner.playlistStore()
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if _, err := store.CreatePlaylist(context.Background(), "erik", "Road Trip"); err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}

	t.Run("playlist list", func(t *testing.T) {
		output.Reset()
		if err := run(t, runner, "playlist", "list", "--user", "erik"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if got := output.String(); got != "Road Trip (0 songs)\n" {
			t.Errorf("unexpected playlist list %q", got)
		}
	})

	t.Run("playlist export", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		output.Reset()
		if err := run(t, runner, "playlist", "export", "--user", "erik", "--format", "md", "--output", dir); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		if !strings.Contains(output.String(), "Exported: 1/1 playlists") {
			t.Errorf("unexpected export output:\n%s", output.String())
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})

	t.Run("playlist export rejects unknown format", func(t *testing.T) {
		err := run(t, runner, "playlist", "export", "--user", "erik", "--format", "docx")
		if err == nil {
			t.Error("expected an error for an unknown format")
		}
	})
}

func TestChatPlain(t *testing.T) {
	runner, output := newTestRunner(t, "/register erik\n/create_playlist Party\n/list_playlists\n/exit\n")

	if err := run(t, runner, "chat", "--plain"); err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	got := output.String()
	for _, want := range []string{
		"Hello, I'm MusicAgent.",
		"Welcome, erik!",
		"Playlist Party created.",
		"Party (0 songs)",
		"It was nice talking to you. Bye!",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("chat output missing %q:\n%s", want, got)
		}
	}
}

func TestChatPlainWithUser(t *testing.T) {
	runner, output := newTestRunner(t, "/list_playlists\n")

	if err := run(t, runner, "chat", "--plain", "--user", "nobody"); err == nil {
		t.Fatal("expected login of an unknown user to fail")
	}

	if err := run(t, runner, "user", "register", "erik"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := run(t, runner, "chat", "--plain", "--user", "erik"); err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if got := output.String(); !strings.Contains(got, "Welcome back, erik!") || !strings.Contains(got, "You don't have any playlists yet.") {
		t.Errorf("unexpected chat output:\n%s", got)
	}
}
