// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"global_explorer/internal/adapters/observability"
	"global_explorer/internal/app"
	"global_explorer/internal/domain"
)

type Handlers struct {
	Q         *app.QueryService
	Favorites *app.FavoritesStore
	Comments  *app.CommentStore
	// AI is optional; its routes answer 503 without it.
	AI  *app.AISearchService
	Bus *app.Bus

	AIRatePerMinute int
	Origins         []string
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	// Criteria is set on failed AI searches: the filters to apply now.
	Criteria *domain.Criteria `json:"criteria,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Group(func(r chi.Router) {
		r.Use(Timeout(s.timeout))

		r.Get("/v1/filters", h.filters)
		r.Get("/v1/cities", h.listCities)
		r.Get("/v1/cities/{id}", h.getCity)
		r.Get("/v1/cities/{id}/comments", h.listComments)
		r.Post("/v1/cities/{id}/comments", h.addComment)
		r.Get("/v1/cities/{id}/rating", h.rating)
		r.Post("/v1/comments/{id}/helpful", h.markHelpful)
		r.Delete("/v1/comments/{id}", h.removeComment)

		r.Get("/v1/favorites", h.listFavorites)
		r.Post("/v1/favorites/{id}/toggle", h.toggleFavorite)
		r.Delete("/v1/favorites/{id}", h.removeFavorite)

		r.With(h.aiLimiter()).Post("/v1/ai/search", h.aiSearch)
		r.Get("/v1/ai/search/last", h.aiLast)
		r.Delete("/v1/ai/search/last", h.aiClear)
		r.Get("/v1/ai/examples", h.aiExamples)
	})

	// long-lived; must stay outside the timeout group
	s.mux.Get("/v1/events", h.events)
}

func (h *Handlers) aiLimiter() func(http.Handler) http.Handler {
	n := h.AIRatePerMinute
	if n <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(n, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "slow down and try again in a minute")
		}),
	)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// respond writes v with a weak ETag and honours If-None-Match.
func respond(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("route", r.URL.Path).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("route", r.URL.Path).Msg("request failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "storage unavailable")
}

func cityID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return 0, false
	}
	return id, true
}

// knownCity parses the id and answers 404 for ids outside the catalog.
func (h *Handlers) knownCity(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := cityID(w, r)
	if !ok {
		return 0, false
	}
	if _, found := h.Q.City(id); !found {
		writeProblem(w, http.StatusNotFound, "Not Found", "city not found")
		return 0, false
	}
	return id, true
}

func (h *Handlers) filters(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.Q.AllowList())
}

func (h *Handlers) listCities(w http.ResponseWriter, r *http.Request) {
	c := domain.ParseCriteria(r.URL.Query())
	respond(w, r, h.Q.Search(c))
}

func (h *Handlers) getCity(w http.ResponseWriter, r *http.Request) {
	id, ok := cityID(w, r)
	if !ok {
		return
	}
	v, err := h.Q.GetCity(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "city not found")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	respond(w, r, v)
}

func (h *Handlers) listComments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.knownCity(w, r)
	if !ok {
		return
	}
	cs, err := h.Comments.ListByCity(r.Context(), id)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respond(w, r, map[string]any{"items": cs})
}

type commentRequest struct {
	Author string `json:"author"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func (h *Handlers) addComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.knownCity(w, r)
	if !ok {
		return
	}
	var req commentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected JSON with author, rating and text")
		return
	}
	c, err := h.Comments.Add(r.Context(), id, req.Author, req.Rating, req.Text)
	if errors.Is(err, domain.ErrValidation) {
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid comment", err.Error())
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handlers) rating(w http.ResponseWriter, r *http.Request) {
	id, ok := h.knownCity(w, r)
	if !ok {
		return
	}
	sum, err := h.Comments.Aggregate(r.Context(), id)
	if err != nil {
		internalError(w, r, err)
		return
	}
	respond(w, r, sum)
}

func (h *Handlers) markHelpful(w http.ResponseWriter, r *http.Request) {
	c, found, err := h.Comments.MarkHelpful(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, r, err)
		return
	}
	if !found {
		writeProblem(w, http.StatusNotFound, "Not Found", "comment not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handlers) removeComment(w http.ResponseWriter, r *http.Request) {
	if err := h.Comments.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type favoritesResponse struct {
	IDs      domain.FavoriteSet `json:"ids"`
	Favorite *bool              `json:"favorite,omitempty"`
}

func (h *Handlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	set, items := h.Q.FavoriteCities(r.Context())
	respond(w, r, map[string]any{"ids": set, "items": items})
}

func (h *Handlers) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := h.knownCity(w, r)
	if !ok {
		return
	}
	set, err := h.Favorites.Toggle(r.Context(), id)
	if err != nil {
		internalError(w, r, err)
		return
	}
	fav := set.Contains(id)
	writeJSON(w, http.StatusOK, favoritesResponse{IDs: set, Favorite: &fav})
}

// removeFavorite accepts ids no longer in the catalog so stale entries can be purged.
func (h *Handlers) removeFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := cityID(w, r)
	if !ok {
		return
	}
	set, err := h.Favorites.Remove(r.Context(), id)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoritesResponse{IDs: set})
}

func (h *Handlers) aiAvailable(w http.ResponseWriter) bool {
	if h.AI == nil {
		writeProblem(w, http.StatusServiceUnavailable, "AI search disabled", "no completion backend is configured")
		return false
	}
	return true
}

type aiSearchRequest struct {
	Description string `json:"description"`
}

func (h *Handlers) aiSearch(w http.ResponseWriter, r *http.Request) {
	if !h.aiAvailable(w) {
		return
	}
	var req aiSearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "expected JSON with a description")
		return
	}

	res, err := h.AI.Search(r.Context(), req.Description)
	observability.ObserveExtraction(err)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, domain.ErrEmptyInput):
		writeProblem(w, http.StatusUnprocessableEntity, "Empty description", "describe your trip first")
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrMalformedResponse):
		log.Warn().Err(err).Msg("ai search failed")
		writeProblemBody(w, problem{
			Type:     "about:blank",
			Title:    "AI couldn't understand that",
			Status:   http.StatusBadGateway,
			Detail:   "Try adding a bit more detail or different words.",
			Criteria: &domain.Criteria{Regions: []string{}, Tags: []string{}, Seasons: []string{}},
		})
	default:
		internalError(w, r, err)
	}
}

func (h *Handlers) aiLast(w http.ResponseWriter, r *http.Request) {
	if !h.aiAvailable(w) {
		return
	}
	respond(w, r, h.AI.Last(r.Context()))
}

func (h *Handlers) aiClear(w http.ResponseWriter, r *http.Request) {
	if !h.aiAvailable(w) {
		return
	}
	if err := h.AI.Clear(r.Context()); err != nil {
		internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) aiExamples(w http.ResponseWriter, r *http.Request) {
	respond(w, r, map[string]any{"examples": app.ExamplePrompts})
}
