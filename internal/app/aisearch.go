package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"global_explorer/internal/domain"
)

// LastSearch is the most recent AI search, restored when the user comes back.
type LastSearch struct {
	Description string   `json:"description"`
	Regions     []string `json:"regions"`
	Tags        []string `json:"tags"`
	Seasons     []string `json:"seasons"`
}

func (l LastSearch) IsEmpty() bool {
	return strings.TrimSpace(l.Description) == "" && len(l.Regions) == 0 && len(l.Tags) == 0 && len(l.Seasons) == 0
}

func (l LastSearch) Criteria() domain.Criteria {
	return domain.Criteria{Regions: l.Regions, Tags: l.Tags, Seasons: l.Seasons}
}

type AISearchStore struct {
	kv domain.KeyValueStore
}

func NewAISearchStore(kv domain.KeyValueStore) *AISearchStore {
	return &AISearchStore{kv: kv}
}

// Save persists l, or clears the key when l carries nothing.
func (s *AISearchStore) Save(ctx context.Context, l LastSearch) error {
	if l.IsEmpty() {
		return s.kv.Delete(ctx, AISearchKey)
	}
	return writeJSON(ctx, s.kv, AISearchKey, l)
}

// Load returns the stored search with every filter value re-checked against al.
func (s *AISearchStore) Load(ctx context.Context, al domain.AllowList) LastSearch {
	var l LastSearch
	ok, err := readJSON(ctx, s.kv, AISearchKey, &l)
	if err != nil {
		log.Warn().Err(err).Str("context", "AISearchStore.Load").Msg("last AI search unavailable")
		return LastSearch{}
	}
	if !ok {
		return LastSearch{}
	}
	c := al.Sanitize(l.Criteria())
	return LastSearch{Description: l.Description, Regions: c.Regions, Tags: c.Tags, Seasons: c.Seasons}
}

func (s *AISearchStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, AISearchKey)
}

// AISearchService runs a description through the extractor, remembers the
// outcome and filters the catalog with it.
type AISearchService struct {
	extractor *Extractor
	catalog   domain.Catalog
	last      *AISearchStore
}

func NewAISearchService(e *Extractor, c domain.Catalog, last *AISearchStore) *AISearchService {
	return &AISearchService{extractor: e, catalog: c, last: last}
}

type AIResult struct {
	Description string          `json:"description"`
	Criteria    domain.Criteria `json:"criteria"`
	Items       []domain.City   `json:"items"`
}

// Search fails only with the extractor's errors. Empty input leaves the
// stored search as it was; transport and parse failures reset the stored
// filters to empty so no half-applied state survives.
func (s *AISearchService) Search(ctx context.Context, description string) (AIResult, error) {
	al := s.catalog.AllowList()
	c, err := s.extractor.Extract(ctx, description, al)
	if err != nil {
		if !errors.Is(err, domain.ErrEmptyInput) {
			if serr := s.last.Save(ctx, LastSearch{Description: description}); serr != nil {
				log.Warn().Err(serr).Str("context", "AISearchService.Search").Msg("reset last search failed")
			}
		}
		return AIResult{}, err
	}

	if err := s.last.Save(ctx, LastSearch{
		Description: description,
		Regions:     c.Regions,
		Tags:        c.Tags,
		Seasons:     c.Seasons,
	}); err != nil {
		log.Warn().Err(err).Str("context", "AISearchService.Search").Msg("persist last search failed")
	}
	return AIResult{Description: description, Criteria: c, Items: Evaluate(s.catalog.Cities(), c)}, nil
}

// Last returns the stored search and the cities it selects.
func (s *AISearchService) Last(ctx context.Context) AIResult {
	l := s.last.Load(ctx, s.catalog.AllowList())
	c := l.Criteria()
	return AIResult{Description: l.Description, Criteria: c, Items: Evaluate(s.catalog.Cities(), c)}
}

func (s *AISearchService) Clear(ctx context.Context) error { return s.last.Clear(ctx) }
