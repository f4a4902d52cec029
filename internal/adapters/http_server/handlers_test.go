package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "global_explorer/internal/adapters/http_server"
	"global_explorer/internal/app"
	"global_explorer/internal/catalog"
	"global_explorer/internal/domain"
	"global_explorer/internal/storage/memory"
)

var cities = []domain.City{
	{ID: 1, Name: "Paris", Country: "France", Region: "Europe", Tags: []string{"food", "art"}, BestSeasons: []string{"Spring"}},
	{ID: 2, Name: "Kyoto", Country: "Japan", Region: "Asia", Tags: []string{"culture"}, BestSeasons: []string{"Autumn"}},
	{ID: 3, Name: "Lisbon", Country: "Portugal", Region: "Europe", Tags: []string{"beach", "food"}, BestSeasons: []string{"Summer"}},
}

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(context.Context, []domain.Message) (string, error) {
	return s.reply, s.err
}

type env struct {
	srv       *httptest.Server
	handler   http.Handler
	favorites *app.FavoritesStore
}

func newEnv(t *testing.T, completer domain.Completer, ratePerMin int) *env {
	t.Helper()
	cat, err := catalog.New(cities, map[int64]string{1: "# Paris"})
	require.NoError(t, err)

	kv := memory.New()
	bus := app.NewBus()
	favs := app.NewFavoritesStore(kv, bus)
	comments := app.NewCommentStore(kv, bus, nil)

	h := &httpserver.Handlers{
		Q:               app.NewQueryService(cat, favs, comments),
		Favorites:       favs,
		Comments:        comments,
		Bus:             bus,
		AIRatePerMinute: ratePerMin,
	}
	if completer != nil {
		ex := app.NewExtractor(completer, nil, 0)
		h.AI = app.NewAISearchService(ex, cat, app.NewAISearchStore(kv))
	}

	s := httpserver.New(httpserver.Options{})
	s.MountHandlers(h)
	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)
	return &env{srv: ts, handler: s.Mux(), favorites: favs}
}

func (e *env) do(t *testing.T, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type searchBody struct {
	ActiveFilters int           `json:"activeFilters"`
	Share         string        `json:"share"`
	Items         []domain.City `json:"items"`
}

type problemBody struct {
	Title    string           `json:"title"`
	Status   int              `json:"status"`
	Detail   string           `json:"detail"`
	Criteria *domain.Criteria `json:"criteria"`
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, nil, 0)
	rr := e.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestListCities_FiltersAndETag(t *testing.T) {
	e := newEnv(t, nil, 0)

	rr := e.do(t, http.MethodGet, "/v1/cities?q=all&regions=Europe&tags=food", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[searchBody](t, rr)
	require.Len(t, body.Items, 2)
	assert.Equal(t, "Paris", body.Items[0].Name)
	assert.Equal(t, "Lisbon", body.Items[1].Name)
	assert.Equal(t, 2, body.ActiveFilters)
	assert.Equal(t, "q=all&regions=Europe&tags=food", body.Share)

	etag := rr.Header().Get("ETag")
	require.NotEmpty(t, etag)
	rr = e.do(t, http.MethodGet, "/v1/cities?q=all&regions=Europe&tags=food", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rr.Code)

	rr = e.do(t, http.MethodGet, "/v1/cities", nil)
	assert.Len(t, decode[searchBody](t, rr).Items, 3, "no criteria lists everything")
}

func TestGetCity(t *testing.T) {
	e := newEnv(t, nil, 0)

	rr := e.do(t, http.MethodGet, "/v1/cities/1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	v := decode[domain.CityView](t, rr)
	assert.Equal(t, "Paris", v.Name)
	assert.Equal(t, "# Paris", v.Detail)
	assert.Len(t, v.Rating.Histogram, 5)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/v1/cities/99", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/v1/cities/abc", nil).Code)
}

func TestComments_Lifecycle(t *testing.T) {
	e := newEnv(t, nil, 0)

	rr := e.do(t, http.MethodPost, "/v1/cities/2/comments", map[string]any{"author": " Ana ", "rating": 5, "text": "Serene"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	c := decode[domain.Comment](t, rr)
	assert.Equal(t, "Ana", c.Author)
	assert.NotEmpty(t, c.ID)

	rr = e.do(t, http.MethodPost, "/v1/cities/2/comments", map[string]any{"author": "Bo", "rating": 0, "text": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, decode[problemBody](t, rr).Detail, "rating")

	assert.Equal(t, http.StatusNotFound,
		e.do(t, http.MethodPost, "/v1/cities/42/comments", map[string]any{"author": "A", "rating": 3, "text": "t"}).Code)

	rr = e.do(t, http.MethodPost, "/v1/comments/"+c.ID+"/helpful", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[domain.Comment](t, rr).Helpful)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/v1/comments/nope/helpful", nil).Code)

	rr = e.do(t, http.MethodGet, "/v1/cities/2/rating", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sum := decode[domain.RatingSummary](t, rr)
	assert.Equal(t, 5.0, sum.Average)
	assert.Equal(t, 1, sum.Histogram[5])

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/v1/comments/"+c.ID, nil).Code)
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/v1/comments/"+c.ID, nil).Code, "second delete is a no-op")

	rr = e.do(t, http.MethodGet, "/v1/cities/2/comments", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[struct {
		Items []domain.Comment `json:"items"`
	}](t, rr).Items)
}

func TestFavorites(t *testing.T) {
	e := newEnv(t, nil, 0)

	rr := e.do(t, http.MethodPost, "/v1/favorites/3/toggle", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ids":[3],"favorite":true}`, rr.Body.String())

	rr = e.do(t, http.MethodGet, "/v1/favorites", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[struct {
		IDs   []int64       `json:"ids"`
		Items []domain.City `json:"items"`
	}](t, rr)
	assert.Equal(t, []int64{3}, list.IDs)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Lisbon", list.Items[0].Name)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/v1/favorites/77/toggle", nil).Code)

	rr = e.do(t, http.MethodDelete, "/v1/favorites/3", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ids":[]}`, rr.Body.String())
}

func TestAISearch(t *testing.T) {
	e := newEnv(t, stubCompleter{reply: `Sure! {"regions":["Europe","Mars"],"tags":["beach"],"seasons":[]}`}, 0)

	rr := e.do(t, http.MethodPost, "/v1/ai/search", map[string]string{"description": "sunny beaches"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[app.AIResult](t, rr)
	assert.Equal(t, []string{"Europe"}, res.Criteria.Regions)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Lisbon", res.Items[0].Name)

	rr = e.do(t, http.MethodGet, "/v1/ai/search/last", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sunny beaches", decode[app.AIResult](t, rr).Description)

	rr = e.do(t, http.MethodPost, "/v1/ai/search", map[string]string{"description": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/v1/ai/search/last", nil).Code)

	rr = e.do(t, http.MethodGet, "/v1/ai/examples", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "romantic")
}

func TestAISearch_FailureResetsFilters(t *testing.T) {
	for name, c := range map[string]stubCompleter{
		"transport": {err: errors.New("connection refused")},
		"malformed": {reply: "I would suggest Lisbon."},
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, c, 0)
			rr := e.do(t, http.MethodPost, "/v1/ai/search", map[string]string{"description": "somewhere warm"})
			require.Equal(t, http.StatusBadGateway, rr.Code)
			assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
			p := decode[problemBody](t, rr)
			assert.Equal(t, "AI couldn't understand that", p.Title)
			require.NotNil(t, p.Criteria)
			assert.Empty(t, p.Criteria.Regions)
		})
	}
}

func TestAISearch_Disabled(t *testing.T) {
	e := newEnv(t, nil, 0)
	rr := e.do(t, http.MethodPost, "/v1/ai/search", map[string]string{"description": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAISearch_RateLimited(t *testing.T) {
	e := newEnv(t, stubCompleter{reply: `{}`}, 1)
	first := e.do(t, http.MethodPost, "/v1/ai/search", map[string]string{"description": "x"})
	assert.Equal(t, http.StatusOK, first.Code)
	second := e.do(t, http.MethodPost, "/v1/ai/search", map[string]string{"description": "x"})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestEvents_StreamsFavoriteChanges(t *testing.T) {
	e := newEnv(t, nil, 0)

	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/v1/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	_, err = e.favorites.Toggle(context.Background(), 2)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev domain.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, domain.EventFavorites, ev.Kind)
}
