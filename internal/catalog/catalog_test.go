package catalog_test

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"global_explorer/internal/catalog"
	"global_explorer/internal/domain"
)

const sample = `[
  {"id": 1, "name": "Paris", "country": "France", "region": "Europe", "tags": ["food"], "bestSeasons": ["Spring"], "detailFile": "paris.md"},
  {"id": 2, "name": "Kyoto", "country": "Japan", "region": "Asia", "tags": ["culture", "food"], "detailFile": "missing.md"},
  {"id": 3, "name": "Lima", "country": "Peru", "region": "South America"}
]`

func TestLoad_FromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"cities.json": {Data: []byte(sample)},
	}
	details := fstest.MapFS{"paris.md": {Data: []byte("# Paris")}}

	cat, err := catalog.Load(context.Background(), fsys, "cities.json", details, 2)
	require.NoError(t, err)

	require.Len(t, cat.Cities(), 3)
	c, ok := cat.City(2)
	require.True(t, ok)
	assert.Equal(t, "Kyoto", c.Name)

	_, ok = cat.City(99)
	assert.False(t, ok)

	assert.Equal(t, "# Paris", cat.Detail(1))
	assert.Empty(t, cat.Detail(2), "missing detail file is tolerated")
	assert.Empty(t, cat.Detail(3))

	lima, _ := cat.City(3)
	assert.NotNil(t, lima.Tags)
	assert.NotNil(t, lima.BestSeasons)

	al := cat.AllowList()
	assert.Equal(t, []string{"Europe", "Asia", "South America"}, al.Regions)
	assert.Equal(t, []string{"food", "culture"}, al.Tags)
	assert.Equal(t, domain.Seasons, al.Seasons)
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	_, err := catalog.New([]domain.City{{ID: 1}, {ID: 1}}, nil)
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	_, err := catalog.Parse(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestOpen_Bundled(t *testing.T) {
	cat, err := catalog.Open(context.Background(), "", "", 4)
	require.NoError(t, err)

	assert.NotEmpty(t, cat.Cities())
	paris, ok := cat.City(1)
	require.True(t, ok)
	assert.Equal(t, "Paris", paris.Name)
	assert.Contains(t, cat.Detail(1), "# Paris")
	assert.Contains(t, cat.AllowList().Regions, "Europe")
}
