package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/studyforge/studyforge-backend/internal/logger"
)

// StatsCache caches computed deck statistics so dashboard fan-out reads
// don't recompute mastery on every request. Entries are short-lived and
// invalidated whenever a new outcome lands.
type StatsCache interface {
	GetDeckStats(ctx context.Context, deckID uuid.UUID, out any) bool
	SetDeckStats(ctx context.Context, deckID uuid.UUID, val any)
	InvalidateDeck(ctx context.Context, deckID uuid.UUID)
	Close() error
}

type statsCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewStatsCache connects to Redis at REDIS_ADDR. A missing address is an
// error; the caller decides whether to run uncached.
func NewStatsCache(log *logger.Logger) (StatsCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &statsCache{
		log: log.With("service", "StatsCache"),
		rdb: rdb,
		ttl: 60 * time.Second,
	}, nil
}

func deckStatsKey(deckID uuid.UUID) string {
	return "deck_stats:" + deckID.String()
}

func (c *statsCache) GetDeckStats(ctx context.Context, deckID uuid.UUID, out any) bool {
	raw, err := c.rdb.Get(ctx, deckStatsKey(deckID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Deck stats cache read failed", "deck_id", deckID, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Warn("Deck stats cache entry corrupt, dropping", "deck_id", deckID, "error", err)
		c.rdb.Del(ctx, deckStatsKey(deckID))
		return false
	}
	return true
}

func (c *statsCache) SetDeckStats(ctx context.Context, deckID uuid.UUID, val any) {
	raw, err := json.Marshal(val)
	if err != nil {
		c.log.Warn("Deck stats cache marshal failed", "deck_id", deckID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, deckStatsKey(deckID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Deck stats cache write failed", "deck_id", deckID, "error", err)
	}
}

func (c *statsCache) InvalidateDeck(ctx context.Context, deckID uuid.UUID) {
	if err := c.rdb.Del(ctx, deckStatsKey(deckID)).Err(); err != nil {
		c.log.Warn("Deck stats cache invalidation failed", "deck_id", deckID, "error", err)
	}
}

func (c *statsCache) Close() error {
	return c.rdb.Close()
}
