package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/FilmThanapol/caloriemate-go/internal/client"
	"github.com/FilmThanapol/caloriemate-go/internal/dispatch"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
	"github.com/FilmThanapol/caloriemate-go/internal/remote/sqlite"
	"github.com/FilmThanapol/caloriemate-go/internal/store"
)

// session bundles the pieces a data command drives: the remote for the
// configured mode, a started store over it, and the dispatcher that
// validates and routes actions.
type session struct {
	cfg        Config
	remote     model.Remote
	store      *store.Store
	dispatcher *dispatch.Dispatcher

	closers []func()
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openSession(ctx context.Context, cfg Config) (*session, error) {
	log := newLogger(cfg)
	s := &session{cfg: cfg}

	switch cfg.Mode {
	case ModeLocal:
		path, err := expandPath(cfg.Local.DatabasePath)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		remote, err := sqlite.Open(path, log)
		if err != nil {
			return nil, err
		}
		s.remote = remote
		s.closers = append(s.closers, func() { _ = remote.Close() })
	case ModeAPI:
		if cfg.API.ServerURL == "" {
			return nil, errors.New("no server configured; run caloriemate login")
		}
		remote, err := client.New(cfg.API.ServerURL, cfg.API.AccessToken, log)
		if err != nil {
			return nil, err
		}
		s.remote = remote
	default:
		return nil, fmt.Errorf("unknown mode %q in config", cfg.Mode)
	}

	st := store.New(s.remote, log)
	if err := st.Start(ctx); err != nil {
		s.close()
		return nil, err
	}
	s.store = st
	s.closers = append(s.closers, st.Close)

	// A failed load keeps the store alive for interactive callers.
	// One-shot commands fail fast instead.
	if err := st.State().Err; err != nil {
		s.close()
		return nil, err
	}

	s.dispatcher = dispatch.New(st, s.remote, log)
	return s, nil
}

// withSession runs fn over an opened session. In api mode an
// unauthorized failure triggers one token refresh and retry, so an
// expired access token does not log the user out while the refresh
// token is still good.
func withSession(ctx context.Context, fn func(ctx context.Context, s *session) error) error {
	cfg, err := loadConfig(configPath())
	if err != nil {
		return err
	}

	err = runOnce(ctx, cfg, fn)
	if !errors.Is(err, model.ErrUnauthorized) || cfg.Mode != ModeAPI {
		return err
	}
	if cfg.API.RefreshToken == "" {
		return fmt.Errorf("not logged in, run caloriemate login: %w", err)
	}

	cfg, err = refreshSession(ctx, cfg)
	if err != nil {
		return fmt.Errorf("session expired, run caloriemate login: %w", err)
	}
	return runOnce(ctx, cfg, fn)
}

func runOnce(ctx context.Context, cfg Config, fn func(ctx context.Context, s *session) error) error {
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(ctx, s)
}

// refreshSession rotates the stored token pair and persists it.
func refreshSession(ctx context.Context, cfg Config) (Config, error) {
	c, err := client.New(cfg.API.ServerURL, "", newLogger(cfg))
	if err != nil {
		return Config{}, err
	}
	pair, err := c.Refresh(ctx, cfg.API.RefreshToken)
	if err != nil {
		return Config{}, err
	}

	cfg.API.AccessToken = pair.AccessToken
	cfg.API.RefreshToken = pair.RefreshToken
	if err := saveConfig(configPath(), cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// runSession is the entry point shared by the data commands.
func runSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) {
	if err := withSession(cmd.Context(), fn); err != nil {
		exitErr(cmd.Name(), err)
	}
}
