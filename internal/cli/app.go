package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/jirasearch/internal/config"
	"github.com/roach88/jirasearch/internal/jira"
	"github.com/roach88/jirasearch/internal/jql"
	"github.com/roach88/jirasearch/internal/search"
	"github.com/roach88/jirasearch/internal/store"
)

const retryDelay = 200 * time.Millisecond

// app is the wiring shared by the commands that talk to Jira.
type app struct {
	cfg      *config.Config
	client   *jira.Client
	resolver jql.Resolver
	cache    *store.Store
	logger   *slog.Logger
}

// newApp loads the configuration and connects the Jira client, wrapping
// the resolver with the SQLite cache when cache_path is set.
func newApp(opts *RootOptions) (*app, error) {
	logger := opts.logger()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "config", cfg.String())

	client, err := jira.NewClient(cfg.BaseURL, cfg.APIToken,
		jira.WithTimeout(cfg.HTTPTimeout()),
		jira.WithRetry(uint(cfg.Retries+1), retryDelay),
		jira.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, client: client, resolver: client, logger: logger}

	if cfg.CachePath != "" {
		st, err := store.Open(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open resolution cache: %w", err)
		}
		a.cache = st
		if cfg.CacheTTL > 0 {
			n, err := st.Purge(context.Background(), time.Now().Add(-cfg.CacheTTL))
			if err != nil {
				logger.Warn("purge resolution cache", "error", err)
			} else if n > 0 {
				logger.Debug("expired resolutions purged", "count", n)
			}
		}
		a.resolver = store.NewCachingResolver(st, client, cfg.CacheTTL, store.WithLogger(logger))
		logger.Debug("resolution cache enabled", "path", cfg.CachePath, "ttl", cfg.CacheTTL)
	}

	return a, nil
}

func (a *app) builder() *jql.Builder {
	return jql.NewBuilder(a.resolver, jql.WithLogger(a.logger))
}

func (a *app) searcher() *search.Searcher {
	return search.NewSearcher(a.builder(), a.client, search.Options{
		BaseURL:         a.cfg.BaseURL,
		DefaultProjects: a.cfg.DefaultProjects,
		MaxResults:      a.cfg.MaxResults,
		Timeout:         a.cfg.SearchTimeout(),
		Logger:          a.logger,
	})
}

func (a *app) Close() {
	if a.cache == nil {
		return
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("error closing resolution cache", "error", err)
	}
}

// commandContext derives a context that is cancelled on SIGINT or SIGTERM.
// Uses the command's context if available (for testing).
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
