package app_test

import (
	"context"
	"errors"

	"global_explorer/internal/domain"
)

// ---- fakes ----

var testCities = []domain.City{
	{ID: 1, Name: "Paris", Country: "France", Region: "Europe", Summary: "Museums and cafe culture.",
		Tags: []string{"art", "food", "romantic"}, BestSeasons: []string{"Spring", "Autumn"}, DetailFile: "paris.md"},
	{ID: 2, Name: "Kyoto", Country: "Japan", Region: "Asia", Summary: "Temples, gardens and hot springs nearby.",
		Tags: []string{"culture", "nature"}, BestSeasons: []string{"Spring", "Autumn"}},
	{ID: 3, Name: "Lisbon", Country: "Portugal", Region: "Europe", Summary: "Hilly coastal capital.",
		Tags: []string{"beach", "food"}, BestSeasons: []string{"Summer"}},
	{ID: 4, Name: "Reykjavik", Country: "Iceland", Region: "Europe", Summary: "Northern lights base camp.",
		Tags: []string{"nature"}, BestSeasons: []string{"Winter"}},
	{ID: 5, Name: "Bangkok", Country: "Thailand", Region: "Asia", Summary: "Street food capital with nightlife.",
		Tags: []string{"food", "nightlife"}, BestSeasons: []string{"Winter"}},
}

type fakeCatalog struct {
	cities []domain.City
	detail map[int64]string
}

func (f *fakeCatalog) Cities() []domain.City { return f.cities }
func (f *fakeCatalog) City(id int64) (domain.City, bool) {
	for _, c := range f.cities {
		if c.ID == id {
			return c, true
		}
	}
	return domain.City{}, false
}
func (f *fakeCatalog) Detail(id int64) string        { return f.detail[id] }
func (f *fakeCatalog) AllowList() domain.AllowList { return domain.BuildAllowList(f.cities) }

type fakeCompleter struct {
	reply string
	err   error
	calls int
	last  []domain.Message
}

func (f *fakeCompleter) Complete(_ context.Context, conv []domain.Message) (string, error) {
	f.calls++
	f.last = conv
	return f.reply, f.err
}

type fakeCache struct {
	store map[string]any
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok := dst.(*domain.Criteria); ok {
		*d = v.(domain.Criteria)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error { delete(c.store, key); return nil }

var errDown = errors.New("storage down")

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errDown }
func (brokenKV) Set(context.Context, string, []byte) error         { return errDown }
func (brokenKV) Delete(context.Context, string) error              { return errDown }

type recorder struct{ events []domain.Event }

func (r *recorder) Publish(ev domain.Event) { r.events = append(r.events, ev) }
