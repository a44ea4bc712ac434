package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicagent/internal/server"
	"github.com/desertthunder/musicagent/internal/shared"
)

const defaultSessionTTL = 30 * time.Minute

// Serve runs the HTTP transport until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	conv, err := r.newAgent(ctx)
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	sessions := server.NewSessions()

	if ttl := cmd.Duration("session-ttl"); ttl > 0 {
		go sessions.Sweep(ctx, max(ttl/10, time.Second), ttl, logger)
	}

	srv := server.New(addr, server.Routes(conv, sessions, logger))
	return server.Run(ctx, srv, logger)
}
