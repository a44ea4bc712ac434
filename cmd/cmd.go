// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicagent/internal/formatter"
)

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the most recent migration",
				Action: r.SetupRollback,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
		},
	}
}

// chatCommand starts an interactive conversation.
func chatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"tui"},
		Usage:   "Chat with the assistant in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "Log in as this user before the first message",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Line-oriented chat on stdin/stdout instead of the full-screen UI",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where the full-screen UI writes its logs",
				Value: "./tmp/musicagent-chat.log",
			},
		},
		Action: r.Chat,
	}
}

// serveCommand exposes the assistant over HTTP.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the chat API, metrics and health endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port from config)",
			},
			&cli.DurationFlag{
				Name:  "session-ttl",
				Usage: "Close sessions idle for longer than this",
				Value: defaultSessionTTL,
			},
		},
		Action: r.Serve,
	}
}

// catalogCommand handles song catalog operations
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Song catalog operations",
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import songs from a JSON Lines file (- for stdin)",
				ArgsUsage: "<file.jsonl>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Songs per transaction",
						Value: 500,
					},
				},
				Action: r.CatalogImport,
			},
			{
				Name:      "search",
				Usage:     "Search the catalog by title",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "artist",
						Aliases: []string{"a"},
						Usage:   "Only songs by this artist",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.CatalogSearch,
			},
		},
	}
}

// playlistCommand handles playlist inspection and export
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List a user's playlists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Username",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:  "export",
				Usage: "Export a user's playlists to files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Username",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: txt, csv, md or json",
						Value:   string(formatter.FormatText),
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: <user>_export_<epoch>)",
					},
					&cli.StringSliceFlag{
						Name:    "playlist",
						Aliases: []string{"p"},
						Usage:   "Only export this playlist (repeatable)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers",
						Value: 4,
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// userCommand handles account management
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "User account operations",
		Commands: []*cli.Command{
			{
				Name:      "register",
				Usage:     "Create a user",
				ArgsUsage: "<username>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "Email address",
					},
				},
				Action: r.UserRegister,
			},
			{
				Name:   "list",
				Usage:  "List users",
				Action: r.UserList,
			},
		},
	}
}
