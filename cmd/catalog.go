package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicagent/internal/catalog"
	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/desertthunder/musicagent/internal/tasks"
)

// CatalogImport loads a JSON Lines catalog dump into the song store.
func (r *Runner) CatalogImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: catalog file", shared.ErrMissingArgument)
	}

	var in io.Reader = r.input
	source := "stdin"
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer f.Close()
		in, source = f, path
	}

	engine, err := r.taskEngine()
	if err != nil {
		return err
	}

	r.logger.Info("importing catalog", "source", source)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ReadCatalog:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ImportSongs:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := engine.ImportCatalog(ctx, in, tasks.ImportOpts{Source: source, BatchSize: cmd.Int("batch-size")}, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Import Complete!")
	r.writePlain("Lines read: %d\n", result.Lines)
	r.writePlain("Imported: %d\n", result.Imported)
	r.writePlain("Already in catalog: %d\n", result.Duplicates)
	if result.Skipped > 0 {
		r.writePlain("\nSkipped %d lines:\n", result.Skipped)
		for _, lineErr := range result.Errors {
			r.writePlain("  - %v\n", lineErr)
		}
	}
	return nil
}

// CatalogSearch prints catalog songs whose title contains the arguments.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	title := strings.Join(cmd.Args().Slice(), " ")

	client, err := r.catalogClient()
	if err != nil {
		return err
	}

	songs, err := client.Search(ctx, title, cmd.String("artist"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	if len(songs) == 0 {
		return r.writePlain("No songs matching %q\n", title)
	}
	return r.writePlain("%s\n", catalog.Describe(songs))
}
