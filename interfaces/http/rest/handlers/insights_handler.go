// Package handlers contains the REST endpoint handlers.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"learninglog-backend/application/services"
	"learninglog-backend/domain/analytics"
	"learninglog-backend/domain/learninglog"
	"learninglog-backend/infrastructure/ai"
	apperrors "learninglog-backend/pkg/errors"
)

// maxInsightEntries bounds how many recent entries feed a prompt.
const maxInsightEntries = 200

// defaultInsightWindow is the range used when the request names no bounds.
const defaultInsightWindow = 7 * 24 * time.Hour

// InsightsHandler serves the AI summary and habit-coach endpoints.
type InsightsHandler struct {
	logs     *services.LogService
	insights *ai.Service
	logger   *zap.Logger
	now      func() time.Time
}

// NewInsightsHandler creates the handler.
func NewInsightsHandler(logs *services.LogService, insights *ai.Service, logger *zap.Logger) *InsightsHandler {
	return &InsightsHandler{
		logs:     logs,
		insights: insights,
		logger:   logger,
		now:      time.Now,
	}
}

type insightRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Focus string `json:"focus"`
}

// Summary handles POST /api/summary: it collects the entries in the
// requested range (defaulting to the last seven days) and returns the
// weekly summary text.
func (h *InsightsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	logs, err := h.collect(r, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	summary := h.insights.WeeklySummary(r.Context(), logs)
	h.respond(w, http.StatusOK, map[string]string{"summary": summary})
}

// Analytics handles GET /api/analytics: aggregate totals, per-tag and
// per-day minutes and the day streaks over the default window.
func (h *InsightsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	req := insightRequest{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}

	logs, err := h.collect(r, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	daily := analytics.GroupDailyMinutes(logs)
	days := make([]string, len(daily))
	for i, d := range daily {
		days[i] = d.Day
	}

	h.respond(w, http.StatusOK, map[string]interface{}{
		"entries":      len(logs),
		"totalMinutes": analytics.SumMinutes(logs),
		"byTag":        analytics.MinutesByTag(logs),
		"daily":        daily,
		"streaks":      analytics.ComputeStreaks(days, h.now()),
	})
}

// Coach handles POST /api/coach: same collection, plus the focus choice.
func (h *InsightsHandler) Coach(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	logs, err := h.collect(r, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	plan := h.insights.HabitPlan(r.Context(), logs, ai.ParseHabitFocus(req.Focus))
	h.respond(w, http.StatusOK, plan)
}

func (h *InsightsHandler) decode(w http.ResponseWriter, r *http.Request) (insightRequest, bool) {
	var req insightRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return req, false
		}
	}
	return req, true
}

// collect fetches the entries feeding the prompt. An explicit range wins;
// otherwise the window covers the last seven days.
func (h *InsightsHandler) collect(r *http.Request, req insightRequest) ([]learninglog.Log, error) {
	filter := services.FilterInput{From: req.From, To: req.To}
	if filter.From == "" && filter.To == "" {
		filter.From = h.now().UTC().Add(-defaultInsightWindow).Format(time.RFC3339)
	}

	result, err := h.logs.List(r.Context(), maxInsightEntries, nil, &filter)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (h *InsightsHandler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *InsightsHandler) writeError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.NewInternalError("Internal server error", err)
	}
	h.respond(w, appErr.HTTPStatus(), map[string]interface{}{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}
