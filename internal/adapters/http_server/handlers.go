package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"restaurant_finder/internal/app"
	"restaurant_finder/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Search  *app.SearchService
	Q       *app.QueryService
	Catalog *app.CatalogService
}

// WriteGuard configures the middleware placed in front of mutating routes.
type WriteGuard struct {
	Tokens []string
	RPS    float64
	Burst  int
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type restaurantRequest struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Email       *string `json:"email"`
	Phone       *int64  `json:"phone"`
	Description string  `json:"description"`
	Hours       string  `json:"hours"`
	PriceRange  string  `json:"priceRange"`
	PhotoURL    *string `json:"photoUrl"`
	CategoryIDs []int64 `json:"categoryIds"`
}

func (r restaurantRequest) input() domain.RestaurantInput {
	return domain.RestaurantInput{
		Name:        r.Name,
		Address:     r.Address,
		Email:       r.Email,
		Phone:       r.Phone,
		Description: r.Description,
		Hours:       r.Hours,
		PriceTier:   r.PriceRange,
		PhotoURL:    r.PhotoURL,
		CategoryIDs: r.CategoryIDs,
	}
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) MountHandlers(h *Handlers, g WriteGuard) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	guarded := func(r chi.Router) {
		r.Use(RateLimit(g.RPS, g.Burst))
		r.Use(BearerAuth(g.Tokens))
	}

	s.mux.Route("/api/v1/restaurants", func(r chi.Router) {
		r.Get("/", h.search)
		r.Get("/categories", h.listCategories)
		r.Get("/{id}", h.getRestaurant)
		r.Get("/{id}/reviews", h.listReviews)

		r.Group(func(r chi.Router) {
			guarded(r)
			r.Post("/register", h.createRestaurant)
			r.Put("/update/{id}", h.updateRestaurant)
			r.Delete("/{id}", h.deleteRestaurant)
			r.Post("/{id}/reviews", h.addReview)
			r.Post("/categories", h.createCategory)
		})
	})

	s.mux.With(BearerAuth(g.Tokens)).Get("/api/v1/auth/validate", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
	})
}

// ---- responses ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Bad Request", strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": "))
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
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

// writeCacheable answers 304 when the client already holds this version.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

// ---- request helpers ----

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return false
	}
	return true
}

// queryList collects a repeated parameter, also splitting comma-separated values.
func queryList(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

// ---- read handlers ----

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := h.Search.SearchRaw(r.Context(),
		q.Get("name"),
		queryList(r, "categories"),
		q.Get("priceRange"),
		q.Get("rating"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []domain.Restaurant{}
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := h.Q.GetRestaurant(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, resp)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.Q.ListReviews(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []domain.Review{}
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []domain.Category{}
	}
	writeCacheable(w, r, out)
}

// ---- write handlers ----

func (h *Handlers) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.Catalog.CreateRestaurant(r.Context(), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req restaurantRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.Catalog.UpdateRestaurant(r.Context(), id, req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteRestaurant(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) addReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reviewRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.Catalog.AddReview(r.Context(), id, req.Rating, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.Catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}
