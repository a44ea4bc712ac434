package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/musicagent/internal/agent"
	"github.com/desertthunder/musicagent/internal/catalog"
	"github.com/desertthunder/musicagent/internal/llm"
	"github.com/desertthunder/musicagent/internal/nlu"
	"github.com/desertthunder/musicagent/internal/playlists"
	"github.com/desertthunder/musicagent/internal/recommend"
	"github.com/desertthunder/musicagent/internal/repositories"
	"github.com/desertthunder/musicagent/internal/services"
	"github.com/desertthunder/musicagent/internal/shared"
	"github.com/desertthunder/musicagent/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database and everything built on it are opened on first use, so
// commands such as setup config never touch the store.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	httpClient *http.Client
	generator  llm.Generator
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	HTTPClient *http.Client
	// Generator replaces the configured language model.
	Generator llm.Generator
	// DB replaces the configured database.
	DB *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		httpClient: opts.HTTPClient,
		generator:  opts.Generator,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, chatCommand, serveCommand, catalogCommand, playlistCommand, userCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure loads the --config file before any command runs. A missing file keeps the defaults.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	return ctx, nil
}

// SetLogger replaces the logger used by commands and the components they build.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("database opened", "path", r.config.Database.Path)
	r.db = db
	return db, nil
}

func (r *Runner) playlistStore() (*playlists.Store, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	opts := playlists.Options{AutoProvision: r.config.Agent.AutoProvision}
	return playlists.NewStore(repositories.NewUserRepository(db), opts, r.logger), nil
}

func (r *Runner) catalogClient() (*catalog.Client, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return catalog.NewClient(repositories.NewSongRepository(db), 0, r.logger), nil
}

func (r *Runner) taskEngine() (*tasks.Engine, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	store, err := r.playlistStore()
	if err != nil {
		return nil, err
	}
	cacher := repositories.NewSongCacheAdapter(repositories.NewSongRepository(db))
	return tasks.NewEngine(cacher, store, r.logger), nil
}

// songSource connects to Spotify when credentials are configured. Without them /playlist is unavailable.
func (r *Runner) songSource(ctx context.Context) agent.SongSource {
	creds := r.config.Credentials.Spotify
	if !creds.Configured() {
		r.logger.Debug("spotify credentials not configured, description playlists disabled")
		return nil
	}

	svc, err := services.NewSpotifyService(ctx, creds, services.SpotifyOptions{HTTPClient: r.httpClient}, r.logger)
	if err != nil {
		r.logger.Warn("spotify unavailable", "error", err)
		return nil
	}
	return svc
}

// newAgent wires the conversation core from the configuration.
func (r *Runner) newAgent(ctx context.Context) (*agent.Agent, error) {
	store, err := r.playlistStore()
	if err != nil {
		return nil, err
	}
	client, err := r.catalogClient()
	if err != nil {
		return nil, err
	}

	gen := r.generator
	if gen == nil {
		if gen, err = llm.New(ctx, r.config.LLM, r.logger); err != nil {
			return nil, fmt.Errorf("failed to create language model client: %w", err)
		}
	}

	return agent.New(agent.Options{
		Playlists:     store,
		Catalog:       client,
		Resolver:      nlu.NewResolver(gen, r.logger),
		Recommender:   recommend.NewEngine(client, r.config.Agent.PreviewSize, r.logger),
		Source:        r.songSource(ctx),
		MaxCandidates: r.config.Agent.MaxCandidates,
		Logger:        r.logger,
	}), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
