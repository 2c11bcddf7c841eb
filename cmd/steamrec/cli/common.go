package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/steamrec/internal/client"
	"github.com/felixgeelhaar/steamrec/internal/config"
	"github.com/felixgeelhaar/steamrec/internal/observe"
	"github.com/felixgeelhaar/steamrec/internal/store"
)

func getStore() (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(filepath.Join(config.Dir(), "steamrec.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}
	return s, nil
}

// loadConfig layers file, environment, stored values and flags, then
// validates the result.
func loadConfig(s store.Storage) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyStore(s); err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.OverrideBaseURL(baseURL)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newService(cfg *config.Config) (client.Service, error) {
	if demoMode {
		return client.NewStubService(), nil
	}
	c, err := client.NewHTTPClient(cfg.BaseURL(), cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newObserver(out io.Writer) *observe.Observer {
	if ciMode {
		return observe.NewJSON(out, verbose)
	}
	return observe.New(out, verbose)
}

// setup opens everything a one-shot command needs. Logs go to stderr so
// stdout carries only results.
func setup() (*Runner, func(), error) {
	s, err := getStore()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig(s)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	svc, err := newService(cfg)
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	obs := newObserver(os.Stderr)
	cleanup := func() {
		obs.Close()
		s.Close()
	}
	return NewRunner(obs, s, svc, cfg, nil), cleanup, nil
}
