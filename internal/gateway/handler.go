package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eleven-am/live-gateway/internal/dto"
	"github.com/eleven-am/live-gateway/internal/live"
	"github.com/eleven-am/live-gateway/internal/session"
	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/eleven-am/live-gateway/internal/transcript"
	"github.com/labstack/echo/v4"
)

// Handler owns the device-facing surface: the streaming socket plus the
// REST views over session records, rendered audio, wire logs, and node
// stats. All routes sit behind the Authenticate middleware.
type Handler struct {
	hub         *Hub
	store       *session.Store
	transcripts *transcript.Store
	embeddings  transcript.EmbeddingService
	upstream    live.Config
	logger      *slog.Logger
}

func NewHandler(
	hub *Hub,
	store *session.Store,
	transcripts *transcript.Store,
	embeddings transcript.EmbeddingService,
	upstream live.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		hub:         hub,
		store:       store,
		transcripts: transcripts,
		embeddings:  embeddings,
		upstream:    upstream,
		logger:      logger.With("handler", "gateway"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleWS)
	g.GET("/sessions", h.ListSessions)
	g.GET("/sessions/:id", h.GetSession)
	g.DELETE("/sessions/:id", h.EndSession)
	g.GET("/sessions/:id/events", h.StreamEvents)
	g.GET("/sessions/:id/audio", h.DownloadAudio)
	g.GET("/sessions/:id/log", h.GetSessionLog)
	g.GET("/stats", h.GetStats)
}

// HandleWS godoc
// @Summary      Open a live session
// @Description  Upgrades to a websocket carrying the device protocol. Query parameters pin the model, voice, and playback sample rate for the session.
// @Tags         live
// @Param        model       query  string  false  "model to converse with"
// @Param        voice       query  string  false  "voice for spoken replies"
// @Param        audio_rate  query  int     false  "device playback sample rate in Hz"
// @Success      101
// @Failure      401  {object}  shared.APIError
// @Failure      503  {object}  shared.APIError
// @Security     APIKeyAuth
// @Security     SessionAuth
// @Router       /live/ws [get]
func (h *Handler) HandleWS(c echo.Context) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return shared.Unauthorized("auth_required", "authentication required")
	}

	model := c.QueryParam("model")
	if model == "" {
		model = h.upstream.Model
	}
	if model == "" {
		model = live.DefaultModel
	}

	clientRate := 0
	if v := c.QueryParam("audio_rate"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return shared.BadRequest("invalid_audio_rate", "audio_rate must be a positive integer")
		}
		clientRate = n
	}

	rec := &session.Session{
		UserID:       ownerID,
		Model:        model,
		Voice:        c.QueryParam("voice"),
		ConnectionID: shared.NewID("conn_"),
	}
	if err := h.store.CreateSession(c.Request().Context(), rec); err != nil {
		h.logger.Error("failed to create session record", "error", err)
		return shared.ServiceUnavailable("session_store_unavailable", "could not create session")
	}
	if err := h.store.IncrementSessions(c.Request().Context(), model); err != nil {
		h.logger.Warn("failed to record metric", "metric", "sessions", "error", err)
	}
	if err := h.store.TrackUniqueUser(c.Request().Context(), model, ownerID); err != nil {
		h.logger.Warn("failed to record metric", "metric", "unique_users", "error", err)
	}

	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	upstream := h.upstream
	upstream.Model = model
	opts := live.SessionOptions{
		VoiceName:        rec.Voice,
		TranscribeInput:  true,
		TranscribeOutput: true,
	}

	conn := newWSConn(ws, h.logger.With("session_id", rec.ID))
	sess := NewSession(conn, SessionConfig{
		Record:      rec,
		Upstream:    upstream,
		Options:     opts,
		ClientRate:  clientRate,
		Store:       h.store,
		Transcripts: h.transcripts,
		Embeddings:  h.embeddings,
		Hub:         h.hub,
		Logger:      h.logger,
	})

	if err := h.hub.Register(sess); err != nil {
		h.logger.Error("failed to register session", "error", err, "session_id", rec.ID)
		_ = ws.Close()
		return nil
	}

	h.logger.Info("device connected", "session_id", rec.ID, "user_id", ownerID, "model", model)
	sess.Run()
	h.logger.Info("device disconnected", "session_id", rec.ID)
	return nil
}

// ListSessions godoc
// @Summary      List my sessions
// @Description  Returns the caller's session records, newest first, active and ended alike
// @Tags         live
// @Produce      json
// @Success      200  {object}  dto.LiveSessionListResponse
// @Failure      401  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Security     APIKeyAuth
// @Security     SessionAuth
// @Router       /live/sessions [get]
func (h *Handler) ListSessions(c echo.Context) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return shared.Unauthorized("auth_required", "authentication required")
	}

	sessions, err := h.store.GetSessionsByUser(c.Request().Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err, "user_id", ownerID)
		return shared.InternalError("list_failed", "failed to list sessions")
	}

	resp := dto.LiveSessionListResponse{Sessions: make([]dto.LiveSessionResponse, 0, len(sessions))}
	for _, rec := range sessions {
		resp.Sessions = append(resp.Sessions, sessionToResponse(rec))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetSession godoc
// @Summary      Get one session
// @Tags         live
// @Produce      json
// @Param        id  path  string  true  "session ID"
// @Success      200  {object}  dto.LiveSessionResponse
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     APIKeyAuth
// @Security     SessionAuth
// @Router       /live/sessions/{id} [get]
func (h *Handler) GetSession(c echo.Context) error {
	rec, err := h.ownedSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionToResponse(rec))
}

// EndSession godoc
// @Summary      End a session
// @Description  Hangs up a session. When it runs on this node the socket is closed too; otherwise the record is just marked ended.
// @Tags         live
// @Param        id  path  string  true  "session ID"
// @Success      204
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     APIKeyAuth
// @Security     SessionAuth
// @Router       /live/sessions/{id} [delete]
func (h *Handler) EndSession(c echo.Context) error {
	rec, err := h.ownedSession(c)
	if err != nil {
		return err
	}

	if sess, ok := h.hub.Get(rec.ID); ok {
		sess.Close("ended via api")
		return c.NoContent(http.StatusNoContent)
	}

	if rec.Status == session.StatusActive {
		if err := h.store.EndSession(c.Request().Context(), rec.ID, session.StatusEnded); err != nil {
			h.logger.Error("failed to end session record", "error", err, "session_id", rec.ID)
			return shared.InternalError("end_failed", "failed to end session")
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// DownloadAudio godoc
// @Summary      Download session audio
// @Description  Renders everything the model has spoken in this session as one WAV file. Only available on the node the session runs on, while it runs.
// @Tags         live
// @Produce      audio/wav
// @Param        id  path  string  true  "session ID"
// @Success      200  {file}  binary
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     APIKeyAuth
// @Security     SessionAuth
// @Router       /live/sessions/{id}/audio [get]
func (h *Handler) DownloadAudio(c echo.Context) error {
	rec, err := h.ownedSession(c)
	if err != nil {
		return err
	}

	sess, ok := h.hub.Get(rec.ID)
	if !ok {
		return shared.NotFound("session_not_active", "session is not active on this node")
	}
	if sess.AudioBytes() == 0 {
		return shared.NotFound("no_audio", "session has produced no audio")
	}

	wav, err := sess.RenderAudio()
	if err != nil {
		h.logger.Error("failed to render session audio", "error", err, "session_id", rec.ID)
		return shared.InternalError("render_failed", "failed to render audio")
	}

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.wav", rec.ID))
	return c.Blob(http.StatusOK, "audio/wav", wav)
}

// GetSessionLog godoc
// @Summary      Get the session wire log
// @Description  Returns the ring buffer of upstream frame summaries for a session running on this node
// @Tags         live
// @Produce      json
// @Param        id  path  string  true  "session ID"
// @Success      200  {object}  dto.SessionLogResponse
// @Failure      401  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Security     APIKeyAuth
// @Security     SessionAuth
// @Router       /live/sessions/{id}/log [get]
func (h *Handler) GetSessionLog(c echo.Context) error {
	rec, err := h.ownedSession(c)
	if err != nil {
		return err
	}

	sess, ok := h.hub.Get(rec.ID)
	if !ok {
		return shared.NotFound("session_not_active", "session is not active on this node")
	}

	entries := sess.LogEntries()
	resp := dto.SessionLogResponse{
		SessionID: rec.ID,
		Entries:   make([]dto.SessionLogEntry, 0, len(entries)),
	}
	for _, e := range entries {
		direction, category := splitCategory(e.Category)
		resp.Entries = append(resp.Entries, dto.SessionLogEntry{
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Direction: direction,
			Category:  category,
			Summary:   e.Payload,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetStats godoc
// @Summary      Gateway stats
// @Description  Point-in-time counters for this node: active sessions, observer streams, lifetime totals
// @Tags         live
// @Produce      json
// @Success      200  {object}  dto.LiveStatsResponse
// @Failure      401  {object}  shared.APIError
// @Security     APIKeyAuth
// @Security     SessionAuth
// @Router       /live/stats [get]
func (h *Handler) GetStats(c echo.Context) error {
	if GetOwnerID(c) == "" {
		return shared.Unauthorized("auth_required", "authentication required")
	}

	stats := h.hub.Stats()
	return c.JSON(http.StatusOK, dto.LiveStatsResponse{
		ActiveSessions:  stats.ActiveSessions,
		EventStreams:    stats.EventStreams,
		SessionsStarted: stats.SessionsStarted,
		SessionsEnded:   stats.SessionsEnded,
		UpstreamRedials: stats.UpstreamRedials,
	})
}

// ownedSession loads the record at :id and checks it belongs to the
// caller. Foreign sessions read as absent rather than forbidden.
func (h *Handler) ownedSession(c echo.Context) (*session.Session, error) {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return nil, shared.Unauthorized("auth_required", "authentication required")
	}

	rec, err := h.store.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("session_not_found", "session not found")
		}
		h.logger.Error("failed to load session record", "error", err)
		return nil, shared.InternalError("get_failed", "failed to load session")
	}
	if rec.UserID != ownerID {
		return nil, shared.NotFound("session_not_found", "session not found")
	}
	return rec, nil
}

func sessionToResponse(rec *session.Session) dto.LiveSessionResponse {
	return dto.LiveSessionResponse{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Model:        rec.Model,
		Voice:        rec.Voice,
		ConnectionID: rec.ConnectionID,
		Status:       string(rec.Status),
		StartedAt:    rec.StartedAt.Format(time.RFC3339),
		LastActiveAt: rec.LastActiveAt.Format(time.RFC3339),
		ClientTurns:  rec.ClientTurns,
		ModelTurns:   rec.ModelTurns,
		ToolCalls:    rec.ToolCalls,
		Reconnects:   rec.Reconnects,
	}
}

// splitCategory turns a wire log category like "server.turnComplete" into
// a direction and the bare category.
func splitCategory(category string) (string, string) {
	prefix, rest, found := strings.Cut(category, ".")
	if !found {
		return "", category
	}
	switch prefix {
	case "client":
		return "send", rest
	case "server":
		return "recv", rest
	default:
		return "", category
	}
}
