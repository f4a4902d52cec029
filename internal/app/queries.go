package app

import (
	"context"
	"fmt"

	"global_explorer/internal/domain"
)

type QueryService struct {
	catalog   domain.Catalog
	favorites *FavoritesStore
	comments  *CommentStore
}

func NewQueryService(c domain.Catalog, f *FavoritesStore, cm *CommentStore) *QueryService {
	return &QueryService{catalog: c, favorites: f, comments: cm}
}

type SearchResult struct {
	Criteria      domain.Criteria `json:"criteria"`
	ActiveFilters int             `json:"activeFilters"`
	Share         string          `json:"share"`
	Items         []domain.City   `json:"items"`
}

// Search applies c to the full catalog. Empty criteria list every city.
func (s *QueryService) Search(c domain.Criteria) SearchResult {
	return SearchResult{
		Criteria:      c,
		ActiveFilters: c.ActiveCount(),
		Share:         c.Values().Encode(),
		Items:         Evaluate(s.catalog.Cities(), c),
	}
}

func (s *QueryService) AllowList() domain.AllowList { return s.catalog.AllowList() }

func (s *QueryService) City(id int64) (domain.City, bool) { return s.catalog.City(id) }

func (s *QueryService) GetCity(ctx context.Context, id int64) (domain.CityView, error) {
	c, ok := s.catalog.City(id)
	if !ok {
		return domain.CityView{}, fmt.Errorf("city %d: %w", id, domain.ErrNotFound)
	}
	rating, err := s.comments.Aggregate(ctx, id)
	if err != nil {
		return domain.CityView{}, err
	}
	return domain.CityView{
		City:     c,
		Detail:   s.catalog.Detail(id),
		Rating:   rating,
		Favorite: s.favorites.IsFavorite(ctx, id),
	}, nil
}

func (s *QueryService) FavoriteCities(ctx context.Context) (domain.FavoriteSet, []domain.City) {
	set := s.favorites.LoadAll(ctx)
	return set, FavoriteCities(s.catalog.Cities(), set)
}

// FavoriteCities keeps the catalog records whose id is in set, in catalog
// order. Ids no longer in the catalog are ignored.
func FavoriteCities(catalog []domain.City, set domain.FavoriteSet) []domain.City {
	out := make([]domain.City, 0, len(set))
	for _, c := range catalog {
		if set.Contains(c.ID) {
			out = append(out, c)
		}
	}
	return out
}
