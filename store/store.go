// Package store persists search scores keyed by position signature. The
// transposition cache sits on top of it; a store only needs to be a dumb
// string-to-score map that tolerates concurrent callers.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/ben-axnick/PFCloneLogic/config"
)

var ErrUnknownScheme = errors.New("unknown score store scheme")

// Store maps position signatures to scores. Get reports a miss with
// ok == false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (score int32, ok bool, err error)
	Set(ctx context.Context, key string, score int32) error
	Close() error
}

// Open connects to the store named by the score-store-url setting:
//
//	memory://             sharded in-process map
//	sqlite:///path/to.db  sqlite file
//	redis://host:port/db  redis server
//
// Connecting is retried. If the store still cannot be reached Open logs
// the failure and returns a nil Store; the cache then misses on every
// lookup instead of stopping the engine.
func Open(cfg *config.Config) Store {
	raw := cfg.GetString(config.ConfigScoreStoreURL)
	attempts := uint(max(1, cfg.GetInt(config.ConfigScoreStoreRetries)))
	var st Store
	err := retry.Do(
		func() error {
			var err error
			st, err = Dial(raw)
			return err
		},
		retry.Attempts(attempts),
		retry.Delay(100*time.Millisecond),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrUnknownScheme)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Uint("n", n).Str("url", raw).Msg("score-store-retry")
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Warn().Err(err).Str("url", raw).Msg("score-store-unavailable")
		return nil
	}
	log.Info().Str("url", raw).Msg("score-store-opened")
	return st
}

// Dial opens a store from its URL without retrying.
func Dial(raw string) (Store, error) {
	if raw == "" || raw == "memory://" {
		return NewMemoryStore(), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("score store url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		path := u.Path
		if u.Host != "" {
			path = u.Host + u.Path
		}
		st, err := NewSQLiteStore(config.DataPath(path))
		if err != nil {
			return nil, err
		}
		return st, nil
	case "redis", "rediss":
		st, err := NewRedisStore(raw)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, u.Scheme)
}
