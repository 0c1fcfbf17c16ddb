package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"mediamorph/internal/api"
	"mediamorph/internal/config"
	"mediamorph/internal/journal"
	"mediamorph/internal/logging"
	"mediamorph/internal/session"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error

	clientOnce sync.Once
	client     *api.Client
	session    *session.Store
	clientErr  error
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

// ensureLogger builds the shared logger, writing to stderr and the log file
// under the configured log directory.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("configure logging: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// ensureClient builds the API client with the persisted session attached.
// The session is loaded but not trust-probed; commands that need a verified
// identity call bootstrap themselves.
func (c *commandContext) ensureClient() (*api.Client, *session.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	c.clientOnce.Do(func() {
		store := session.NewStore(cfg.SessionPath())
		if err := store.Load(); err != nil {
			c.clientErr = err
			return
		}
		client, err := api.New(cfg.API.BaseURL,
			api.WithTokenSource(store),
			api.WithTimeout(cfg.RequestTimeout()))
		if err != nil {
			c.clientErr = err
			return
		}
		c.session = store
		c.client = client
	})
	return c.client, c.session, c.clientErr
}

// requireAuth returns the client only when a session token is held locally.
// The server still has the final say; a stale token surfaces as a 401.
func (c *commandContext) requireAuth() (*api.Client, *session.Store, error) {
	client, store, err := c.ensureClient()
	if err != nil {
		return nil, nil, err
	}
	if !store.Authenticated() {
		return nil, nil, fmt.Errorf("not logged in; run `mediamorph login` first")
	}
	return client, store, nil
}

func (c *commandContext) withJournal(fn func(*journal.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := journal.Open(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
