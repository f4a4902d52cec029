package catalog

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"global_explorer/internal/domain"
)

//go:embed data/cities.json data/details
var bundled embed.FS

// Catalog is the immutable city list plus the markdown detail of each city.
type Catalog struct {
	cities  []domain.City
	index   map[int64]int
	details map[int64]string
	allow   domain.AllowList
}

// New indexes cities. Duplicate ids are rejected.
func New(cities []domain.City, details map[int64]string) (*Catalog, error) {
	idx := make(map[int64]int, len(cities))
	for i, c := range cities {
		if _, dup := idx[c.ID]; dup {
			return nil, fmt.Errorf("duplicate city id %d", c.ID)
		}
		idx[c.ID] = i
	}
	if details == nil {
		details = map[int64]string{}
	}
	return &Catalog{
		cities:  cities,
		index:   idx,
		details: details,
		allow:   domain.BuildAllowList(cities),
	}, nil
}

func (c *Catalog) Cities() []domain.City { return c.cities }

func (c *Catalog) City(id int64) (domain.City, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.City{}, false
	}
	return c.cities[i], true
}

// Detail returns "" when the city has no readable detail file.
func (c *Catalog) Detail(id int64) string { return c.details[id] }

func (c *Catalog) AllowList() domain.AllowList { return c.allow }

// Parse decodes a JSON array of cities.
func Parse(r io.Reader) ([]domain.City, error) {
	var cities []domain.City
	if err := json.NewDecoder(r).Decode(&cities); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for i := range cities {
		if cities[i].Tags == nil {
			cities[i].Tags = []string{}
		}
		if cities[i].BestSeasons == nil {
			cities[i].BestSeasons = []string{}
		}
	}
	return cities, nil
}

// Open loads the catalog from catalogPath and the details from detailsDir.
// An empty catalogPath selects the bundled sample catalog and its details.
func Open(ctx context.Context, catalogPath, detailsDir string, workers int) (*Catalog, error) {
	var (
		fsys    fs.FS
		file    string
		details fs.FS
	)
	if catalogPath == "" {
		fsys, file = bundled, "data/cities.json"
		sub, err := fs.Sub(bundled, "data/details")
		if err != nil {
			return nil, err
		}
		details = sub
	} else {
		fsys, file = os.DirFS(path.Dir(catalogPath)), path.Base(catalogPath)
	}
	if detailsDir != "" {
		details = os.DirFS(detailsDir)
	}
	return Load(ctx, fsys, file, details, workers)
}

// Load reads file from fsys and, when details is non-nil, every city's
// detail file from it.
func Load(ctx context.Context, fsys fs.FS, file string, details fs.FS, workers int) (*Catalog, error) {
	f, err := fsys.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	cities, err := Parse(f)
	if err != nil {
		return nil, err
	}
	var md map[int64]string
	if details != nil {
		md, err = LoadDetails(ctx, details, cities, workers)
		if err != nil {
			return nil, err
		}
	}
	log.Info().Int("cities", len(cities)).Int("details", len(md)).Msg("catalog loaded")
	return New(cities, md)
}

// LoadDetails reads the detail files with at most workers reads in flight.
// Missing or unreadable files are skipped.
func LoadDetails(ctx context.Context, fsys fs.FS, cities []domain.City, workers int) (map[int64]string, error) {
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = make(map[int64]string, len(cities))
	)

	for _, c := range cities {
		if c.DetailFile == "" {
			continue
		}
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("load details: %w", err)
		}
		wg.Add(1)
		go func(id int64, name string) {
			defer wg.Done()
			defer sem.Release(1)

			b, err := fs.ReadFile(fsys, name)
			if err != nil {
				log.Debug().Int64("id", id).Str("file", name).Err(err).Msg("detail unavailable")
				return
			}
			mu.Lock()
			out[id] = string(b)
			mu.Unlock()
		}(c.ID, c.DetailFile)
	}

	wg.Wait()
	return out, nil
}
