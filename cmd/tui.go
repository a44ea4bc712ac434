package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicagent/internal/agent"
	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/desertthunder/musicagent/internal/ui"
)

// Chat runs one conversation in the terminal, full-screen or line by line with --plain.
func (r *Runner) Chat(ctx context.Context, cmd *cli.Command) error {
	plain := cmd.Bool("plain")

	if !plain {
		// Redirect logs to file to avoid interfering with TUI rendering
		path := cmd.String("log-file")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		fileLogger, closer, err := shared.NewFileLogger(path)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer closer.Close()
		r.SetLogger(fileLogger)
	}

	conv, err := r.newAgent(ctx)
	if err != nil {
		return err
	}

	sess := agent.NewSession(shared.GenerateID())
	if username := cmd.String("user"); username != "" {
		store, err := r.playlistStore()
		if err != nil {
			return err
		}
		user, err := store.Login(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to log in as %s: %w", username, err)
		}
		sess.User = user
	}
	r.logger.Info("chat started", "session", sess.ID, "user", sess.Username(), "plain", plain)

	if plain {
		return ui.RunPlain(ctx, conv, sess, r.input, r.output)
	}

	if err := ui.Run(ctx, conv, sess); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
