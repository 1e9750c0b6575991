package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mschirtzinger/issuesync/internal/config"
	"github.com/mschirtzinger/issuesync/internal/dashboard"
	"github.com/mschirtzinger/issuesync/internal/db"
	"github.com/mschirtzinger/issuesync/internal/enrich"
	"github.com/mschirtzinger/issuesync/internal/github"
	"github.com/mschirtzinger/issuesync/internal/logging"
	"github.com/mschirtzinger/issuesync/internal/notion"
	issuesync "github.com/mschirtzinger/issuesync/internal/sync"
)

// application holds what every command shares: configuration, the logger
// and anything that must be closed on exit.
type application struct {
	loader *config.Loader
	cfg    *config.Config
	logger *slog.Logger

	mu      sync.Mutex
	closers []io.Closer
}

var app = &application{}

// loadApp reads configuration and sets up logging before any command runs.
// Flags win over the file and the environment.
func loadApp(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	loader, err := config.NewLoader(path)
	if err != nil {
		return err
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		loader.Set("log.level", v)
	}
	if flags.Changed("log-json") {
		v, _ := flags.GetBool("log-json")
		loader.Set("log.json", v)
	}
	if flags.Changed("log-file") {
		v, _ := flags.GetString("log-file")
		loader.Set("log.file", v)
	}

	cfg, err := loader.Config()
	if err != nil {
		return err
	}

	logger, closer := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.JSON,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}, os.Stderr)
	slog.SetDefault(logger)

	app.loader = loader
	app.cfg = cfg
	app.logger = logger
	app.onClose(closer)

	logger.Debug("configuration loaded", "file", loader.ConfigFile(), "store", cfg.Store.Driver)
	return nil
}

func (a *application) onClose(c io.Closer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, c)
}

// close releases resources in reverse order of acquisition. It is safe to
// call more than once.
func (a *application) close() {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

func (a *application) source() (*github.Client, error) {
	return github.NewClient(github.Config{
		Token:    a.cfg.GitHub.Token,
		Username: a.cfg.GitHub.Username,
		BaseURL:  a.cfg.GitHub.BaseURL,
		MaxPages: a.cfg.GitHub.MaxPages,
		Logger:   a.logger,
	})
}

// sqliteStore opens the local record database.
func (a *application) sqliteStore(ctx context.Context) (*db.DB, error) {
	store, err := db.OpenContext(ctx, a.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	a.onClose(store)
	return store, nil
}

// store opens the record store selected by store.driver.
func (a *application) store(ctx context.Context) (issuesync.Store, error) {
	if a.cfg.Store.Driver == config.DriverSQLite {
		return a.sqliteStore(ctx)
	}
	return notion.NewClient(notion.Config{
		Token:      a.cfg.Notion.Token,
		DatabaseID: a.cfg.Notion.DatabaseID,
		BaseURL:    a.cfg.Notion.BaseURL,
		Logger:     a.logger,
	})
}

func (a *application) enricher() enrich.Enricher {
	return enrich.New(enrich.Config{
		APIKey:    a.cfg.AI.APIKey,
		Model:     a.cfg.AI.Model,
		MaxTokens: a.cfg.AI.MaxTokens,
		BaseURL:   a.cfg.AI.BaseURL,
		Logger:    a.logger,
	})
}

// orchestrator validates the full configuration and wires source, store
// and enricher together.
func (a *application) orchestrator(ctx context.Context, opts ...issuesync.Option) (*issuesync.Orchestrator, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	source, err := a.source()
	if err != nil {
		return nil, err
	}
	store, err := a.store(ctx)
	if err != nil {
		return nil, err
	}

	base := []issuesync.Option{
		issuesync.WithLogger(a.logger),
		issuesync.WithKeyFunc(keyFunc(a.cfg.Sync.Key)),
	}
	return issuesync.New(source, store, a.enricher(), append(base, opts...)...), nil
}

// info describes the configuration for the dashboard status endpoint.
func (a *application) info() dashboard.Info {
	info := dashboard.Info{
		GitHubConfigured: a.cfg.ValidateGitHub() == nil,
		StoreConfigured:  a.cfg.ValidateStore() == nil,
		AIConfigured:     enrich.Config{APIKey: a.cfg.AI.APIKey}.Enabled(),
		StoreDriver:      a.cfg.Store.Driver,
		Username:         a.cfg.GitHub.Username,
	}
	if a.cfg.Store.Driver == config.DriverNotion {
		info.DatabaseID = a.cfg.Notion.DatabaseID
	}
	return info
}

func storeName(driver string) string {
	if driver == config.DriverSQLite {
		return "SQLite"
	}
	return "Notion"
}

func keyFunc(name string) issuesync.KeyFunc {
	if name == config.KeyRepository {
		return issuesync.KeyByRepositoryURL
	}
	return issuesync.KeyByIssueURL
}
