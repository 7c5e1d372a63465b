package transcript

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/eleven-am/live-gateway/internal/auth"
	"github.com/eleven-am/live-gateway/internal/dto"
	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/labstack/echo/v4"
)

// EmbeddingService turns text into a vector for the turn index. The
// default wiring is a no-op model; a real one plugs in without touching
// this package.
type EmbeddingService interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}

type Handler struct {
	store      *Store
	embeddings EmbeddingService
	logger     *slog.Logger
}

func NewHandler(store *Store, embeddings EmbeddingService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:      store,
		embeddings: embeddings,
		logger:     logger.With("handler", "transcript"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/:session_id", h.List)
	g.DELETE("/:session_id", h.Delete)
	g.POST("/search", h.Search)
}

func turnToResponse(t *Turn) dto.TranscriptTurnResponse {
	return dto.TranscriptTurnResponse{
		ID:        t.ID,
		SessionID: t.SessionID,
		Role:      string(t.Role),
		Text:      t.Text,
		Final:     t.Final,
		CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// @Summary      List session transcript
// @Description  Returns the caller's transcript turns for one live session in turn order
// @Tags         transcripts
// @Produce      json
// @Param        session_id path string true "Session ID"
// @Success      200 {object} dto.TranscriptListResponse
// @Failure      401 {object} shared.APIError
// @Failure      500 {object} shared.APIError
// @Router       /transcripts/{session_id} [get]
func (h *Handler) List(c echo.Context) error {
	userID, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	sessionID := c.Param("session_id")

	turns, err := h.store.ListBySession(c.Request().Context(), sessionID, userID)
	if err != nil {
		h.logger.Error("failed to list transcript turns", "error", err, "session_id", sessionID)
		return shared.InternalError("list_failed", "failed to list transcript")
	}

	resp := dto.TranscriptListResponse{
		SessionID: sessionID,
		Turns:     make([]dto.TranscriptTurnResponse, len(turns)),
	}
	for i, t := range turns {
		resp.Turns[i] = turnToResponse(t)
	}

	return c.JSON(http.StatusOK, resp)
}

// @Summary      Delete session transcript
// @Description  Removes the caller's transcript turns for one live session, including their search index entries
// @Tags         transcripts
// @Param        session_id path string true "Session ID"
// @Success      204 "Transcript deleted"
// @Failure      401 {object} shared.APIError
// @Failure      404 {object} shared.APIError
// @Failure      500 {object} shared.APIError
// @Router       /transcripts/{session_id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	userID, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	sessionID := c.Param("session_id")

	if err := h.store.DeleteBySession(c.Request().Context(), sessionID, userID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("transcript_not_found", "no transcript for this session")
		}
		h.logger.Error("failed to delete transcript", "error", err, "session_id", sessionID)
		return shared.InternalError("delete_failed", "failed to delete transcript")
	}

	return c.NoContent(http.StatusNoContent)
}

// @Summary      Search transcripts
// @Description  Searches the caller's transcript turns using semantic search
// @Tags         transcripts
// @Accept       json
// @Produce      json
// @Param        request body dto.TranscriptSearchRequest true "Search query"
// @Success      200 {object} dto.TranscriptSearchResponse
// @Failure      400 {object} shared.APIError
// @Failure      401 {object} shared.APIError
// @Failure      500 {object} shared.APIError
// @Router       /transcripts/search [post]
func (h *Handler) Search(c echo.Context) error {
	userID, err := auth.RequireAuth(c)
	if err != nil {
		return err
	}

	var req dto.TranscriptSearchRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if req.Query == "" {
		return shared.BadRequest("missing_query", "search query is required")
	}

	limit := 10
	if req.Limit > 0 && req.Limit <= 100 {
		limit = req.Limit
	}

	if h.embeddings == nil {
		return shared.InternalError("search_unavailable", "search is not available")
	}

	embedding, err := h.embeddings.Generate(c.Request().Context(), req.Query)
	if err != nil {
		return shared.InternalError("search_failed", "failed to generate search embedding")
	}

	hits, err := h.store.SearchByEmbedding(c.Request().Context(), embedding, limit)
	if err != nil {
		h.logger.Error("transcript search failed", "error", err)
		return shared.InternalError("search_failed", "failed to search transcript turns")
	}

	results := make([]dto.TranscriptSearchResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Turn.UserID != userID {
			continue
		}
		results = append(results, dto.TranscriptSearchResult{
			Turn:  turnToResponse(hit.Turn),
			Score: hit.Score,
		})
	}

	return c.JSON(http.StatusOK, dto.TranscriptSearchResponse{
		Query:   req.Query,
		Results: results,
	})
}
