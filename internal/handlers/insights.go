package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/XavierBriggs/Augur/internal/insights"
	"github.com/XavierBriggs/Augur/internal/scheduler"
	"github.com/XavierBriggs/Augur/pkg/models"
	"github.com/sirupsen/logrus"
)

// InsightRequest is the body of POST /api/v1/insights
type InsightRequest struct {
	GameID string `json:"gameId"`
	Book   string `json:"book"`
	Market string `json:"market"`
}

// CreateInsight asks the AI gateway for commentary on one market. A gateway
// failure still answers 200 with the fallback insight.
func (h *Handler) CreateInsight(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var body InsightRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	market, ok := models.ParseMarket(body.Market)
	if body.GameID == "" || !ok {
		h.respondError(w, http.StatusBadRequest, "gameId and a market of spread, moneyline or total are required", nil)
		return
	}

	b, ok := h.loadBoard(ctx, w)
	if !ok {
		return
	}

	rec, found := b.Find(body.GameID, body.Book)
	if !found {
		h.respondError(w, http.StatusNotFound, "game not found", nil)
		return
	}

	var move *models.LineMovement
	if h.deps.Movements != nil {
		m, found, err := h.deps.Movements.LastMovement(ctx, rec.Book, rec.GameID, market)
		if err != nil {
			h.logger.WithError(err).WithField("game_id", rec.GameID).Warn("last movement lookup failed")
		} else if found {
			move = &m
		}
	}

	req, err := insights.BuildRequest(rec, market, move)
	if errors.Is(err, insights.ErrMarketUnavailable) {
		h.respondError(w, http.StatusUnprocessableEntity, "market not offered by "+rec.Book, nil)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to build insight request", err)
		return
	}

	insight := insights.Fallback(req)
	if h.deps.Insights != nil {
		insight, err = h.deps.Insights.Analyze(ctx, req)
		if err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"game_id": rec.GameID,
				"market":  string(market),
			}).Warn("insight degraded to fallback")
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"gameId":  rec.GameID,
		"book":    rec.Book,
		"request": req,
		"insight": insight,
	})
}

// TriggerRefresh runs the pipeline now. Requires X-Admin-Secret.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if h.deps.Refresher == nil {
		h.respondError(w, http.StatusNotImplemented, "refresh not available", nil)
		return
	}

	result, err := h.deps.Refresher.RunOnce(r.Context())
	if errors.Is(err, scheduler.ErrRunInProgress) {
		h.respondError(w, http.StatusConflict, "refresh already running", nil)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("run_id", result.RunID).Error("manual refresh failed")
		respondJSON(w, http.StatusBadGateway, result)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RequireAdmin rejects requests without the shared admin secret. An empty
// secret disables the guarded routes.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.deps.AdminSecret == "" {
			h.respondError(w, http.StatusForbidden, "admin routes disabled", nil)
			return
		}
		given := r.Header.Get("X-Admin-Secret")
		if subtle.ConstantTimeCompare([]byte(given), []byte(h.deps.AdminSecret)) != 1 {
			h.respondError(w, http.StatusUnauthorized, "invalid admin secret", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
