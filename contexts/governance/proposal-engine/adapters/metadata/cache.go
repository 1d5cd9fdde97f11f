package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"arcane/contexts/governance/proposal-engine/domain/entities"
	"arcane/contexts/governance/proposal-engine/ports"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "governance:metadata:"

type cachedDocument struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Picture        string `json:"picture"`
	CreatedBy      string `json:"created_by"`
	EndEpochOffset int64  `json:"end_epoch_offset"`
}

// CachedResolver keeps resolved documents in redis. IPFS content is
// immutable per reference, so entries only expire to bound memory. Cache
// failures fall through to the wrapped resolver.
type CachedResolver struct {
	Next   ports.MetadataResolver
	Redis  redis.Cmdable
	TTL    time.Duration
	Logger *slog.Logger
}

func (c CachedResolver) Resolve(ctx context.Context, ref string) (entities.ProposalMetadata, error) {
	key := cacheKeyPrefix + strings.TrimSpace(ref)
	if c.Redis != nil {
		raw, err := c.Redis.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var doc cachedDocument
			if err := json.Unmarshal(raw, &doc); err == nil {
				return entities.ProposalMetadata(doc), nil
			}
			c.warn("governance_metadata_cache_decode_failed", key, err)
		case !errors.Is(err, redis.Nil):
			c.warn("governance_metadata_cache_get_failed", key, err)
		}
	}

	metadata, err := c.Next.Resolve(ctx, ref)
	if err != nil {
		return entities.ProposalMetadata{}, err
	}
	if c.Redis != nil {
		payload, err := json.Marshal(cachedDocument(metadata))
		if err == nil {
			err = c.Redis.Set(ctx, key, payload, c.TTL).Err()
		}
		if err != nil {
			c.warn("governance_metadata_cache_set_failed", key, err)
		}
	}
	return metadata, nil
}

func (c CachedResolver) warn(event string, key string, err error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("metadata cache unavailable",
		"event", event,
		"module", "governance/proposal-engine",
		"layer", "adapter",
		"cache_key", key,
		"error", err.Error(),
	)
}
