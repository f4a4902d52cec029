package app

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"global_explorer/internal/domain"
)

// Fixed storage keys.
const (
	FavoritesKey = "favorites"
	CommentsKey  = "cityComments"
	AISearchKey  = "aiSearchFilters_v1"
)

// readJSON decodes key into dst and reports whether dst holds a usable value.
// A missing key or a corrupt document is not an error: callers treat it as an
// empty collection. Only storage failures are returned.
func readJSON(ctx context.Context, kv domain.KeyValueStore, key string, dst any) (bool, error) {
	b, found, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !found || len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("corrupt stored value, treating as empty")
		return false, nil
	}
	return true, nil
}

func writeJSON(ctx context.Context, kv domain.KeyValueStore, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, b); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
