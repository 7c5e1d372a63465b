package session

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eleven-am/live-gateway/internal/auth"
	"github.com/eleven-am/live-gateway/internal/dto"
	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/eleven-am/live-gateway/internal/user"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store     *Store
	userStore *user.Store
	logger    *slog.Logger
}

func NewHandler(store *Store, userStore *user.Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:     store,
		userStore: userStore,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/models", h.GetMetrics)
	g.GET("/models/summary", h.GetSummary)
}

// requireDeveloper gates the metrics endpoints. Models are shared
// platform resources, so any developer may read their usage.
func (h *Handler) requireDeveloper(c echo.Context) error {
	userID, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	u, err := h.userStore.GetByID(c.Request().Context(), userID)
	if err != nil {
		return shared.NotFound("user_not_found", "user not found")
	}

	if !u.IsDeveloper {
		return shared.Forbidden("not_developer", "developer access required")
	}

	return nil
}

func metricsToResponse(m *Metrics) dto.MetricsResponse {
	return dto.MetricsResponse{
		Model:          m.Model,
		Date:           m.Date,
		Hour:           m.Hour,
		Sessions:       m.Sessions,
		ClientTurns:    m.ClientTurns,
		ModelTurns:     m.ModelTurns,
		ToolCalls:      m.ToolCalls,
		Interruptions:  m.Interruptions,
		PromptTokens:   m.PromptTokens,
		ResponseTokens: m.ResponseTokens,
		UniqueUsers:    m.UniqueUsers,
		AvgLatencyMs:   m.AvgLatencyMs,
		ErrorCount:     m.ErrorCount,
	}
}

// @Summary      Get model usage metrics
// @Description  Returns hourly usage metrics for a model. Model names contain slashes, so the model is passed as a query parameter.
// @Tags         metrics
// @Produce      json
// @Param        model  query  string  true   "Model name, e.g. models/gemini-2.0-flash-exp"
// @Param        hours  query  int     false  "Number of hours to return (1-168, default 24)"
// @Success      200  {object}  dto.MetricsListResponse
// @Failure      400  {object}  shared.APIError
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /metrics/models [get]
func (h *Handler) GetMetrics(c echo.Context) error {
	if err := h.requireDeveloper(c); err != nil {
		return err
	}

	model := c.QueryParam("model")
	if model == "" {
		return shared.BadRequest("model_required", "model query parameter is required")
	}

	hoursStr := c.QueryParam("hours")
	hours := 24
	if hoursStr != "" {
		if hr, err := strconv.Atoi(hoursStr); err == nil && hr > 0 && hr <= 168 {
			hours = hr
		}
	}

	metrics, err := h.store.GetMetrics(c.Request().Context(), model, hours)
	if err != nil {
		h.logger.Error("failed to get metrics", "error", err, "model", model)
		return shared.InternalError("get_metrics_failed", "failed to get metrics")
	}

	response := make([]dto.MetricsResponse, len(metrics))
	for i, m := range metrics {
		response[i] = metricsToResponse(m)
	}

	return c.JSON(http.StatusOK, dto.MetricsListResponse{
		Model:   model,
		Hours:   hours,
		Metrics: response,
	})
}

// @Summary      Get model usage summary
// @Description  Aggregates the last 7 days of usage for a model into totals and rates.
// @Tags         metrics
// @Produce      json
// @Param        model  query  string  true  "Model name, e.g. models/gemini-2.0-flash-exp"
// @Success      200  {object}  dto.SummaryResponse
// @Failure      400  {object}  shared.APIError
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /metrics/models/summary [get]
func (h *Handler) GetSummary(c echo.Context) error {
	if err := h.requireDeveloper(c); err != nil {
		return err
	}

	model := c.QueryParam("model")
	if model == "" {
		return shared.BadRequest("model_required", "model query parameter is required")
	}

	metrics, err := h.store.GetMetricsForLast7Days(c.Request().Context(), model)
	if err != nil {
		h.logger.Error("failed to get metrics summary", "error", err, "model", model)
		return shared.InternalError("get_metrics_failed", "failed to get metrics")
	}

	var summary dto.SummaryResponse
	summary.Model = model
	summary.Period = "7d"

	var totalLatency int64
	var latencyCount int64
	var errorCount int64

	for _, m := range metrics {
		summary.TotalSessions += m.Sessions
		summary.TotalClientTurns += m.ClientTurns
		summary.TotalModelTurns += m.ModelTurns
		summary.TotalToolCalls += m.ToolCalls
		summary.TotalInterruptions += m.Interruptions
		summary.TotalPromptTokens += m.PromptTokens
		summary.TotalResponseTokens += m.ResponseTokens
		summary.UniqueUsers += m.UniqueUsers
		errorCount += m.ErrorCount

		if m.AvgLatencyMs > 0 {
			totalLatency += m.AvgLatencyMs
			latencyCount++
		}
	}

	if latencyCount > 0 {
		summary.AvgLatencyMs = totalLatency / latencyCount
	}

	if summary.TotalModelTurns > 0 {
		summary.ErrorRate = float64(errorCount) / float64(summary.TotalModelTurns) * 100
	}

	return c.JSON(http.StatusOK, summary)
}
