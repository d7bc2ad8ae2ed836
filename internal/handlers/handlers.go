package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/XavierBriggs/Augur/internal/board"
	"github.com/XavierBriggs/Augur/internal/scheduler"
	"github.com/XavierBriggs/Augur/internal/teams"
	"github.com/XavierBriggs/Augur/pkg/contracts"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// BoardReader loads the latest published board
type BoardReader interface {
	Load(ctx context.Context) (*models.Board, error)
}

// Refresher triggers and reports pipeline runs
type Refresher interface {
	RunOnce(ctx context.Context) (scheduler.RunResult, error)
	LastRun() scheduler.RunResult
}

// MovementReader returns the last recorded move for a market
type MovementReader interface {
	LastMovement(ctx context.Context, book, gameID string, market models.Market) (models.LineMovement, bool, error)
}

// Deps are the handler's collaborators. Insights, Movements and Refresher may be nil.
type Deps struct {
	Boards      BoardReader
	Refresher   Refresher
	Movements   MovementReader
	Insights    contracts.InsightProvider
	Ledger      *teams.MissLedger
	Matcher     *teams.FuzzyMatcher
	AdminSecret string
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	deps   Deps
	logger *logrus.Entry
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NewHandler creates a new handler with dependencies
func NewHandler(deps Deps, logger *logrus.Entry) *Handler {
	if deps.Ledger == nil {
		deps.Ledger = teams.NewMissLedger()
	}
	return &Handler{
		deps:   deps,
		logger: logger,
	}
}

// HealthCheck reports board freshness and the last refresh
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "augur",
	}

	b, err := h.deps.Boards.Load(ctx)
	switch {
	case errors.Is(err, board.ErrNoBoard):
		resp["board"] = "empty"
	case err != nil:
		h.respondError(w, http.StatusServiceUnavailable, "board cache unhealthy", err)
		return
	default:
		resp["board"] = map[string]interface{}{
			"run_id":       b.RunID,
			"generated_at": b.GeneratedAt,
			"built_at":     b.BuiltAt,
			"count":        b.Count,
		}
	}

	if h.deps.Refresher != nil {
		resp["last_run"] = h.deps.Refresher.LastRun()
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetBoard returns the sorted board
// Query params: sport, book
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var sport models.SportCode
	if raw := r.URL.Query().Get("sport"); raw != "" {
		code, ok := models.NormalizeSport(raw)
		if !ok {
			h.respondError(w, http.StatusBadRequest, "unknown sport: "+raw, nil)
			return
		}
		sport = code
	}
	book := r.URL.Query().Get("book")

	b, ok := h.loadBoard(ctx, w)
	if !ok {
		return
	}

	games := board.Filter(b, sport, book)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       b.RunID,
		"generated_at": b.GeneratedAt,
		"built_at":     b.BuiltAt,
		"games":        games,
		"count":        len(games),
	})
}

// GetGame returns one game's record
// Query params: book (defaults to the first book on the board)
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	gameID := chi.URLParam(r, "gameID")
	if gameID == "" {
		h.respondError(w, http.StatusBadRequest, "game_id is required", nil)
		return
	}

	b, ok := h.loadBoard(ctx, w)
	if !ok {
		return
	}

	game, found := b.Find(gameID, r.URL.Query().Get("book"))
	if !found {
		h.respondError(w, http.StatusNotFound, "game not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// GetMisses lists unmapped team slugs, most frequent first
func (h *Handler) GetMisses(w http.ResponseWriter, r *http.Request) {
	misses := h.deps.Ledger.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"misses": misses,
		"count":  len(misses),
	})
}

// SuggestTeam returns the closest table entry for a slug
// Query params: slug, sport
func (h *Handler) SuggestTeam(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	rawSport := r.URL.Query().Get("sport")
	if slug == "" || rawSport == "" {
		h.respondError(w, http.StatusBadRequest, "slug and sport are required", nil)
		return
	}

	sport, ok := models.NormalizeSport(rawSport)
	if !ok {
		h.respondError(w, http.StatusBadRequest, "unknown sport: "+rawSport, nil)
		return
	}

	if h.deps.Matcher == nil {
		h.respondError(w, http.StatusNotImplemented, "fuzzy matching disabled", nil)
		return
	}

	match, found := h.deps.Matcher.Suggest(slug, sport)
	if !found {
		h.respondError(w, http.StatusNotFound, "no confident match", nil)
		return
	}

	respondJSON(w, http.StatusOK, match)
}

func (h *Handler) loadBoard(ctx context.Context, w http.ResponseWriter) (*models.Board, bool) {
	b, err := h.deps.Boards.Load(ctx)
	if errors.Is(err, board.ErrNoBoard) {
		h.respondError(w, http.StatusServiceUnavailable, "board not ready", nil)
		return nil, false
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to load board", err)
		return nil, false
	}
	return b, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Error("error encoding response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.logger.WithError(err).WithField("status", status).Error(message)
	}

	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
