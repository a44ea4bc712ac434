package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicagent/internal/repositories"
	"github.com/desertthunder/musicagent/internal/shared"
)

// UserRegister creates an account, the same as /register in a chat.
func (r *Runner) UserRegister(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	store, err := r.playlistStore()
	if err != nil {
		return err
	}

	user, err := store.Register(ctx, username, cmd.String("email"))
	if err != nil {
		return err
	}

	r.logger.Info("user registered", "username", user.Username)
	return r.writePlain("✓ Registered %s\n", user.Username)
}

// UserList prints every account with its playlist count.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	users, err := repositories.NewUserRepository(db).List(ctx)
	if err != nil {
		return err
	}

	if len(users) == 0 {
		return r.writePlain("No users yet. Create one with 'musicagent user register <name>'\n")
	}
	for _, u := range users {
		r.writePlain("%s (%d playlists)\n", u.Username, len(u.Playlists))
	}
	return nil
}
