package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"plexshelf/internal/api"
	"plexshelf/internal/config"
	"plexshelf/internal/enrichment"
	"plexshelf/internal/logging"
	"plexshelf/internal/services/plex"
	"plexshelf/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	mu      sync.Mutex
	logger  *slog.Logger
	store   *store.Store
	service *api.Service
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	c.logger = logger
	return logger, nil
}

func (c *commandContext) plexClient() (*plex.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidatePlex(); err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return plex.NewClient(plexConfig(cfg), nil, logger), nil
}

func plexConfig(cfg *config.Config) plex.Config {
	return plex.Config{
		URL:         cfg.Plex.URL,
		Token:       cfg.Plex.Token,
		LibraryName: cfg.Plex.LibraryName,
		Timeout:     cfg.PlexTimeout(),
	}
}

// ensureService opens the store and wires Plex and enrichment once per
// invocation. Plex is optional so review commands work without a token.
func (c *commandContext) ensureService(ctx context.Context) (*api.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.service != nil {
		return c.service, nil
	}

	lookup, err := enrichment.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	deps := api.Deps{Store: st, Lookup: lookup, Logger: logger}
	if cfg.ValidatePlex() == nil {
		client := plex.NewClient(plexConfig(cfg), nil, logger)
		deps.Source = client
		deps.Sink = client
	}
	svc, err := api.NewService(ctx, cfg, deps)
	if err != nil {
		st.Close()
		return nil, err
	}
	c.store = st
	c.service = svc
	return svc, nil
}

func (c *commandContext) withService(cmd *cobra.Command, fn func(context.Context, *api.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := c.ensureService(ctx)
	if err != nil {
		return err
	}
	defer c.close()
	return fn(ctx, svc)
}

func (c *commandContext) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
	c.service = nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
