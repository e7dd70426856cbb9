package speech

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"lukechampine.com/blake3"
)

// Cache memoizes synthesized speech by text. Concurrent requests for the same
// text share one synthesis call.
type Cache struct {
	synth  Synthesizer
	logger *slog.Logger
	store  *gocache.Cache
	group  singleflight.Group
}

// NewCache wraps synth with a TTL store. ttl <= 0 keeps entries for the process lifetime.
func NewCache(synth Synthesizer, ttl time.Duration, logger *slog.Logger) *Cache {
	expiry := ttl
	cleanup := 10 * time.Minute
	if ttl <= 0 {
		expiry = gocache.NoExpiration
		cleanup = 0
	}
	return &Cache{synth: synth, logger: logger, store: gocache.New(expiry, cleanup)}
}

// Get returns synthesized bytes for text. Empty results are not cached.
func (c *Cache) Get(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" || c.synth == nil {
		return nil, nil
	}

	key := cacheKey(text)
	if hit, ok := c.store.Get(key); ok {
		return hit.([]byte), nil
	}

	value, err, _ := c.group.Do(key, func() (any, error) {
		pcm, err := c.synth.SynthesizeSpeech(context.WithoutCancel(ctx), text)
		if err != nil {
			return nil, err
		}
		if len(pcm) > 0 {
			c.store.SetDefault(key, pcm)
		}
		return pcm, nil
	})
	if err != nil {
		return nil, err
	}
	pcm, _ := value.([]byte)
	return pcm, nil
}

// Prefetch synthesizes text in the background so a later Get is a hit.
func (c *Cache) Prefetch(ctx context.Context, text string) {
	go func() {
		if _, err := c.Get(ctx, text); err != nil && c.logger != nil {
			c.logger.Debug("speech prefetch failed", "error", err.Error())
		}
	}()
}

func (c *Cache) Len() int {
	return c.store.ItemCount()
}

func cacheKey(text string) string {
	hasher := blake3.New(32, nil)
	_, _ = hasher.Write([]byte(text))
	return hex.EncodeToString(hasher.Sum(nil))
}
