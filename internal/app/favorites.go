package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"global_explorer/internal/domain"
)

// FavoritesStore persists the favorite city IDs as one JSON array.
// Every mutation rewrites the whole array.
type FavoritesStore struct {
	mu  sync.Mutex
	kv  domain.KeyValueStore
	pub domain.Publisher
}

// NewFavoritesStore accepts a nil publisher.
func NewFavoritesStore(kv domain.KeyValueStore, pub domain.Publisher) *FavoritesStore {
	if pub == nil {
		pub = nopPublisher{}
	}
	return &FavoritesStore{kv: kv, pub: pub}
}

// LoadAll never fails: unreadable storage reads as an empty set.
func (s *FavoritesStore) LoadAll(ctx context.Context) domain.FavoriteSet {
	set, err := s.load(ctx)
	if err != nil {
		log.Warn().Err(err).Str("context", "FavoritesStore.LoadAll").Msg("favorites unavailable")
		return domain.FavoriteSet{}
	}
	return set
}

func (s *FavoritesStore) IsFavorite(ctx context.Context, id int64) bool {
	return s.LoadAll(ctx).Contains(id)
}

// Toggle adds id when absent and removes it when present.
func (s *FavoritesStore) Toggle(ctx context.Context, id int64) (domain.FavoriteSet, error) {
	return s.mutate(ctx, func(set domain.FavoriteSet) domain.FavoriteSet {
		if set.Contains(id) {
			return set.Without(id)
		}
		return append(set, id)
	})
}

func (s *FavoritesStore) Remove(ctx context.Context, id int64) (domain.FavoriteSet, error) {
	return s.mutate(ctx, func(set domain.FavoriteSet) domain.FavoriteSet {
		return set.Without(id)
	})
}

func (s *FavoritesStore) mutate(ctx context.Context, fn func(domain.FavoriteSet) domain.FavoriteSet) (domain.FavoriteSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	next := fn(set)
	if err := writeJSON(ctx, s.kv, FavoritesKey, next); err != nil {
		return nil, err
	}
	s.pub.Publish(domain.Event{Kind: domain.EventFavorites})
	return next, nil
}

func (s *FavoritesStore) load(ctx context.Context) (domain.FavoriteSet, error) {
	var set domain.FavoriteSet
	ok, err := readJSON(ctx, s.kv, FavoritesKey, &set)
	if err != nil {
		return nil, err
	}
	if !ok || set == nil {
		return domain.FavoriteSet{}, nil
	}
	return set, nil
}
