package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/models"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewRouter serves the board. An empty origins list allows any origin.
func NewRouter(board *Board, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h := &handler{board: board}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/lines", h.lines)
		r.Get("/events/{eventID}/lines", h.eventLines)
		r.Get("/usage", h.usage)
	})
	return r
}

type handler struct {
	board *Board
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	events, updated := h.board.Stats()
	body := map[string]interface{}{
		"status": "healthy",
		"events": events,
	}
	if !updated.IsZero() {
		body["updated_at"] = updated
	}
	respondJSON(w, http.StatusOK, body)
}

// lines serves the merged slate.
// Query params: bucket (different_points|same_points), bookmaker, market, limit
func (h *handler) lines(w http.ResponseWriter, r *http.Request) {
	slate := h.board.Slate()
	q := r.URL.Query()

	var entries []models.ResultEntry
	switch models.Bucket(q.Get("bucket")) {
	case models.BucketNone:
		entries = slate.Entries()
	case models.BucketDifferentPoints:
		entries = slate.DifferentPoints
	case models.BucketSamePoints:
		entries = slate.SamePoints
	default:
		respondError(w, http.StatusBadRequest, "bucket must be different_points or same_points", nil)
		return
	}

	entries = filterEntries(entries, q.Get("bookmaker"), q.Get("market"))
	if limit := parseIntParam(r, "limit", 0); limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []models.ResultEntry{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lines":    entries,
		"count":    len(entries),
		"compared": slate.Compared,
		"skipped":  slate.Skipped,
	})
}

func (h *handler) eventLines(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	res, ok := h.board.Event(eventID)
	if !ok {
		respondError(w, http.StatusNotFound, "event not on the board", nil)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *handler) usage(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.board.Usage())
}

func filterEntries(entries []models.ResultEntry, bookmaker, market string) []models.ResultEntry {
	if bookmaker == "" && market == "" {
		return entries
	}
	out := make([]models.ResultEntry, 0, len(entries))
	for _, e := range entries {
		if bookmaker != "" && e.BookmakerKey != bookmaker {
			continue
		}
		if market != "" && e.MarketKey != market {
			continue
		}
		out = append(out, e)
	}
	return out
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Errorf("[httpapi] encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logging.Errorf("[httpapi] %s: %v", message, err)
	}
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
