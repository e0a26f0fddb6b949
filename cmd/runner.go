package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotapi/internal/repositories"
	"github.com/desertthunder/spotapi/internal/shared"
	"github.com/desertthunder/spotapi/internal/ui"
	"github.com/desertthunder/spotapi/spotify"
	"github.com/urfave/cli/v3"
)

const defaultLoginTimeout = 2 * time.Minute

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config        *shared.Config
	configPath    string
	client        *spotify.Client
	clientOptions spotify.Options
	db            *sql.DB
	sessions      *repositories.SessionRepository
	httpClient    *http.Client
	logger        *log.Logger
	output        io.Writer
	palette       *ui.Palette
	openBrowser   func(string) error
	loginTimeout  time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	// ClientOptions is the base for every [spotify.Client] the runner builds. Credentials and tokens left
	// empty are filled from Config or the stored session.
	ClientOptions spotify.Options
	Sessions      *repositories.SessionRepository
	HTTPClient    *http.Client
	Logger        *log.Logger
	Output        io.Writer
	OpenBrowser   func(string) error
	LoginTimeout  time.Duration
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
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = defaultLoginTimeout
	}

	r := &Runner{
		config:        opts.Config,
		configPath:    opts.ConfigPath,
		clientOptions: opts.ClientOptions,
		sessions:      opts.Sessions,
		httpClient:    opts.HTTPClient,
		logger:        opts.Logger,
		output:        opts.Output,
		palette:       ui.Default,
		openBrowser:   opts.OpenBrowser,
		loginTimeout:  opts.LoginTimeout,
	}
	r.connect()
	return r
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "spotapi",
		Usage:   "Query the Spotify Web API from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides the config file",
			},
			&cli.BoolFlag{
				Name:  "no-db",
				Usage: "Do not read or write the session database",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, meCommand, albumsCommand, artistsCommand, playlistsCommand, playerCommand,
		unfollowCommand, genresCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the config file named by --config, opens the session database and rebuilds the client.
//
// A missing config file is not an error; the embedded defaults are used and nothing is persisted.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, fmt.Errorf("%w: %w", shared.ErrInvalidConfig, err)
		}
		r.config = config
		r.configPath = path
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	level := cmd.String("log-level")
	if level == "" {
		level = r.config.Log.Level
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	if !cmd.Bool("no-db") && r.sessions == nil && r.configPath != "" {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			r.logger.Warn("session database unavailable, tokens will only be saved to the config file", "error", err)
		} else {
			r.db = db
			r.sessions = repositories.NewSessionRepository(db)
		}
	}

	r.connect()
	return ctx, nil
}

// connect (re)builds the Spotify client from the current config and stored session.
func (r *Runner) connect() {
	if r.client != nil {
		r.client.Close()
	}

	sc := r.config.Credentials.Spotify
	opts := r.clientOptions
	if opts.ClientID == "" {
		opts.ClientID = sc.ClientID
	}
	if opts.ClientSecret == "" {
		opts.ClientSecret = sc.ClientSecret
	}
	if opts.RedirectURI == "" {
		opts.RedirectURI = sc.RedirectURI
	}
	if opts.BearerToken == "" && opts.RefreshToken == "" {
		opts.BearerToken, opts.RefreshToken = sc.AccessToken, sc.RefreshToken
	}
	if opts.BearerToken == "" && opts.RefreshToken == "" && r.sessions != nil && opts.ClientID != "" {
		if stored, err := r.sessions.Get(opts.ClientID); err == nil {
			r.logger.Debug("using stored session", "updated_at", stored.UpdatedAt)
			opts.BearerToken, opts.RefreshToken = stored.AccessToken, stored.RefreshToken
		}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = r.httpClient
	}
	opts.Logger = r.logger
	opts.OnTokenUpdate = r.persist

	r.client = spotify.New(opts)
}

// persist saves the session after every token exchange or refresh.
func (r *Runner) persist(t spotify.Tokens) {
	sc := &r.config.Credentials.Spotify
	if err := sc.Update(t.AccessToken, t.RefreshToken); err != nil {
		r.logger.Warn("failed to update spotify configuration", "error", err)
		return
	}

	if r.configPath != "" {
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			r.logger.Warn("failed to save config", "error", err)
		} else {
			r.logger.Debug("tokens saved", "path", r.configPath)
		}
	}

	if r.sessions != nil && sc.ClientID != "" {
		stored := &repositories.StoredSession{ClientID: sc.ClientID, AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
		if err := r.sessions.Save(stored); err != nil {
			r.logger.Warn("failed to save session", "error", err)
		}
	}
}

// recordGrant stores the scope and expiry reported with the current access token.
func (r *Runner) recordGrant(scope string, expiresIn int) {
	clientID := r.config.Credentials.Spotify.ClientID
	if r.sessions == nil || clientID == "" {
		return
	}

	stored := &repositories.StoredSession{
		ClientID:    clientID,
		AccessToken: r.client.Session().AccessToken(),
		Scope:       scope,
	}
	if expiresIn > 0 {
		at := time.Now().Add(time.Duration(expiresIn) * time.Second)
		stored.ExpiresAt = &at
	}
	if err := r.sessions.Save(stored); err != nil {
		r.logger.Warn("failed to record grant", "error", err)
	}
}

// Close releases the client and the session database.
func (r *Runner) Close() error {
	var errs []error
	if r.client != nil {
		errs = append(errs, r.client.Close())
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	return errors.Join(errs...)
}

// unavailable reports an endpoint that answered with its fallback.
func unavailable(what string) error {
	return fmt.Errorf("%w: %s unavailable (rerun with --log-level debug for the cause)", shared.ErrAPIRequest, what)
}

// render writes data as JSON when --json is set and calls plain otherwise.
func (r *Runner) render(cmd *cli.Command, data any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return plain()
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

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
