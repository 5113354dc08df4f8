// Package suggestions is the Redis-backed memo of learned
// (input -> entity) associations. Advisory only: entries expire, decay
// and never outrank catalog evidence.
package suggestions

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/fingerprint"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/redis"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

const (
	scoreFieldPrefix = "score:"
	nameFieldPrefix  = "name:"

	// Entries are refreshed on every confirmation; an input nobody has
	// confirmed for this long starts from scratch.
	entryTTL = 90 * 24 * time.Hour
)

// Cache stores suggestion scores in one Redis hash per normalized input,
// one score field per entity, so concurrent confirmations are atomic
// HINCRBYFLOAT operations.
type Cache struct {
	client *redis.Client
	logger ectologger.Logger
}

// NewCache creates a suggestion cache.
func NewCache(client *redis.Client, logger ectologger.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

func key(family models.Family, normalizedInput string) string {
	return fingerprint.Scoped("suggestions:"+string(family), normalizedInput)
}

// Get returns every cached suggestion for a normalized input.
func (c *Cache) Get(ctx context.Context, family models.Family, normalizedInput string) ([]models.CachedSuggestion, error) {
	ctx, span := tracing.StartSpan(ctx, "suggestions.Cache.Get")
	defer span.End()

	fields, err := c.client.HGetAll(ctx, key(family, normalizedInput))
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Failed to read suggestion cache")
		return nil, err
	}
	return parseSuggestions(fields), nil
}

// parseSuggestions converts a suggestion hash into an ordered slice:
// score descending, entity id ascending. Hash iteration order is random,
// and consumers pick the first qualifying entry, so the order here must
// be stable across calls.
func parseSuggestions(fields map[string]string) []models.CachedSuggestion {
	var out []models.CachedSuggestion
	for field, value := range fields {
		entityID, ok := strings.CutPrefix(field, scoreFieldPrefix)
		if !ok {
			continue
		}
		score, err := strconv.ParseFloat(value, 64)
		if err != nil || score <= 0 {
			continue
		}
		out = append(out, models.CachedSuggestion{
			EntityID: entityID,
			Name:     fields[nameFieldPrefix+entityID],
			Score:    score,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// Upsert atomically adjusts an entity's suggestion score for an input and
// returns the new score. A non-positive result removes the entry.
func (c *Cache) Upsert(ctx context.Context, family models.Family, normalizedInput, entityID, name string, delta float64) (float64, error) {
	ctx, span := tracing.StartSpan(ctx, "suggestions.Cache.Upsert")
	defer span.End()

	k := key(family, normalizedInput)
	score, err := c.client.HIncrByFloat(ctx, k, scoreFieldPrefix+entityID, delta)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Failed to adjust suggestion score")
		return 0, err
	}

	if score <= 0 {
		if err := c.client.HDel(ctx, k, scoreFieldPrefix+entityID, nameFieldPrefix+entityID); err != nil {
			c.logger.WithContext(ctx).WithError(err).Warn("Failed to remove decayed suggestion")
		}
		return 0, nil
	}

	if name != "" {
		if err := c.client.HSet(ctx, k, nameFieldPrefix+entityID, name); err != nil {
			c.logger.WithContext(ctx).WithError(err).Warn("Failed to store suggestion name")
		}
	}
	if err := c.client.Expire(ctx, k, entryTTL); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Failed to refresh suggestion TTL")
	}

	return score, nil
}
