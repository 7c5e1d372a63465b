package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/live-gateway/internal/dto"
	"github.com/eleven-am/live-gateway/internal/session"
	"github.com/eleven-am/live-gateway/internal/transcript"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type handlerHarness struct {
	handler *Handler
	hub     *Hub
	store   *session.Store
	echo    *echo.Echo
}

func newHandlerHarness(t *testing.T, upstreamEndpoint string) *handlerHarness {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	transcripts := transcript.NewStore(db, nil)
	if err := transcripts.Migrate(); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	store := session.NewStore(redisClient)
	hub := NewHub(redisClient, discardLogger())
	t.Cleanup(func() { hub.Close() })

	h := NewHandler(hub, store, transcripts, nil, upstreamConfig(upstreamEndpoint), discardLogger())
	return &handlerHarness{handler: h, hub: hub, store: store, echo: echo.New()}
}

func (h *handlerHarness) context(method, target string, ownerID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := h.echo.NewContext(req, rec)
	if ownerID != "" {
		c.Set("owner_id", ownerID)
	}
	return c, rec
}

func (h *handlerHarness) seedRecord(t *testing.T, id, userID string) *session.Session {
	t.Helper()
	rec := &session.Session{ID: id, UserID: userID, Model: "models/test-model", ConnectionID: "conn_1"}
	if err := h.store.CreateSession(context.Background(), rec); err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	return rec
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")
	g := h.echo.Group("/live")
	h.handler.RegisterRoutes(g)

	want := []string{
		"/live/ws",
		"/live/sessions",
		"/live/sessions/:id",
		"/live/sessions/:id/events",
		"/live/sessions/:id/audio",
		"/live/sessions/:id/log",
		"/live/stats",
	}
	paths := make(map[string]bool)
	for _, r := range h.echo.Routes() {
		paths[r.Path] = true
	}
	for _, p := range want {
		if !paths[p] {
			t.Errorf("route %s should be registered", p)
		}
	}
}

func TestHandler_ListSessions(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")
	h.seedRecord(t, "sess_1", "user_1")
	h.seedRecord(t, "sess_2", "user_1")
	h.seedRecord(t, "sess_other", "user_2")

	c, rec := h.context(http.MethodGet, "/live/sessions", "user_1")
	if err := h.handler.ListSessions(c); err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}

	var resp dto.LiveSessionListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Sessions) != 2 {
		t.Errorf("sessions = %d, want 2 (only the caller's)", len(resp.Sessions))
	}
	for _, s := range resp.Sessions {
		if s.UserID != "user_1" {
			t.Errorf("listed a foreign session: %+v", s)
		}
	}
}

func TestHandler_ListSessions_Unauthorized(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")

	c, _ := h.context(http.MethodGet, "/live/sessions", "")
	err := h.handler.ListSessions(c)
	if err == nil {
		t.Fatal("expected error without an owner")
	}
	if httpErr := err.(*echo.HTTPError); httpErr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", httpErr.Code)
	}
}

func TestHandler_GetSession(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")
	h.seedRecord(t, "sess_1", "user_1")

	c, rec := h.context(http.MethodGet, "/live/sessions/sess_1", "user_1")
	c.SetParamNames("id")
	c.SetParamValues("sess_1")

	if err := h.handler.GetSession(c); err != nil {
		t.Fatalf("GetSession error: %v", err)
	}

	var resp dto.LiveSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ID != "sess_1" || resp.Status != string(session.StatusActive) {
		t.Errorf("response = %+v, want sess_1 active", resp)
	}
}

func TestHandler_GetSession_ForeignOwnerReadsAsMissing(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")
	h.seedRecord(t, "sess_1", "user_1")

	c, _ := h.context(http.MethodGet, "/live/sessions/sess_1", "user_2")
	c.SetParamNames("id")
	c.SetParamValues("sess_1")

	err := h.handler.GetSession(c)
	if err == nil {
		t.Fatal("expected error for a foreign session")
	}
	if httpErr := err.(*echo.HTTPError); httpErr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", httpErr.Code)
	}
}

func TestHandler_EndSession_RecordOnly(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")
	h.seedRecord(t, "sess_1", "user_1")

	c, rec := h.context(http.MethodDelete, "/live/sessions/sess_1", "user_1")
	c.SetParamNames("id")
	c.SetParamValues("sess_1")

	if err := h.handler.EndSession(c); err != nil {
		t.Fatalf("EndSession error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	got, err := h.store.GetSession(context.Background(), "sess_1")
	if err != nil {
		t.Fatalf("GetSession error: %v", err)
	}
	if got.Status != session.StatusEnded {
		t.Errorf("record status = %s, want ended", got.Status)
	}
}

func TestHandler_DownloadAudio_NotActive(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")
	h.seedRecord(t, "sess_1", "user_1")

	c, _ := h.context(http.MethodGet, "/live/sessions/sess_1/audio", "user_1")
	c.SetParamNames("id")
	c.SetParamValues("sess_1")

	err := h.handler.DownloadAudio(c)
	if err == nil {
		t.Fatal("expected error when the session is not on this node")
	}
	if httpErr := err.(*echo.HTTPError); httpErr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", httpErr.Code)
	}
}

func TestHandler_GetSessionLog_NotActive(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")
	h.seedRecord(t, "sess_1", "user_1")

	c, _ := h.context(http.MethodGet, "/live/sessions/sess_1/log", "user_1")
	c.SetParamNames("id")
	c.SetParamValues("sess_1")

	err := h.handler.GetSessionLog(c)
	if err == nil {
		t.Fatal("expected error when the session is not on this node")
	}
	if httpErr := err.(*echo.HTTPError); httpErr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", httpErr.Code)
	}
}

func TestHandler_GetStats(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")

	c, _ := h.context(http.MethodGet, "/live/stats", "")
	if err := h.handler.GetStats(c); err == nil {
		t.Error("expected error without an owner")
	}

	c, rec := h.context(http.MethodGet, "/live/stats", "user_1")
	if err := h.handler.GetStats(c); err != nil {
		t.Fatalf("GetStats error: %v", err)
	}

	var resp dto.LiveStatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.ActiveSessions != 0 || resp.SessionsStarted != 0 {
		t.Errorf("fresh node stats = %+v, want zeros", resp)
	}
}

func TestHandler_HandleWS_InvalidAudioRate(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")

	c, _ := h.context(http.MethodGet, "/live/ws?audio_rate=notanumber", "user_1")
	err := h.handler.HandleWS(c)
	if err == nil {
		t.Fatal("expected error for a bad audio_rate")
	}
	if httpErr := err.(*echo.HTTPError); httpErr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", httpErr.Code)
	}
}

func TestHandler_HandleWS_Unauthorized(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")

	c, _ := h.context(http.MethodGet, "/live/ws", "")
	err := h.handler.HandleWS(c)
	if err == nil {
		t.Fatal("expected error without an owner")
	}
	if httpErr := err.(*echo.HTTPError); httpErr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", httpErr.Code)
	}
}

// ownerMiddleware stands in for Authenticate in end-to-end tests.
func ownerMiddleware(ownerID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("owner_id", ownerID)
			return next(c)
		}
	}
}

func TestHandler_HandleWS_EndToEnd(t *testing.T) {
	up := newFakeUpstream(t)
	h := newHandlerHarness(t, "ws"+up.server.URL[4:])

	g := h.echo.Group("/live", ownerMiddleware("user_1"))
	h.handler.RegisterRoutes(g)

	server := httptest.NewServer(h.echo)
	t.Cleanup(server.Close)

	device, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[4:]+"/live/ws?model=models/custom&voice=Aoede", nil)
	if err != nil {
		t.Fatalf("device dial error: %v", err)
	}
	t.Cleanup(func() { device.Close() })

	if err := device.WriteJSON(&Message{Type: MessageTypeText, Text: "hello"}); err != nil {
		t.Fatalf("device write error: %v", err)
	}

	setup := up.nextReceived(t)
	if !strings.Contains(setup, "models/custom") {
		t.Errorf("setup should pin the requested model, got %s", setup)
	}
	if !strings.Contains(setup, "Aoede") {
		t.Errorf("setup should carry the requested voice, got %s", setup)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		_ = device.SetReadDeadline(deadline)
		var msg Message
		if err := device.ReadJSON(&msg); err != nil {
			t.Fatalf("device read error: %v", err)
		}
		if msg.Type == MessageTypeReady {
			break
		}
	}

	if h.hub.SessionCount() != 1 {
		t.Errorf("hub sessions = %d, want 1", h.hub.SessionCount())
	}

	sessions, err := h.store.GetSessionsByUser(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("GetSessionsByUser error: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Model != "models/custom" || sessions[0].Voice != "Aoede" {
		t.Errorf("stored sessions = %+v, want one with the requested model and voice", sessions)
	}
}

func TestHandler_StreamEvents(t *testing.T) {
	h := newHandlerHarness(t, "ws://127.0.0.1:9")
	h.seedRecord(t, "sess_1", "user_1")

	h.echo.GET("/live/sessions/:id/events", h.handler.StreamEvents, ownerMiddleware("user_1"))
	server := httptest.NewServer(h.echo)
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/live/sessions/sess_1/events")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %s, want text/event-stream", ct)
	}

	// Wait for the observer to take hold before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && h.hub.ObserverCount() == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	ctx := context.Background()
	if err := h.hub.PublishEvent(ctx, "sess_1", &Message{Type: MessageTypeText, Text: "hi"}); err != nil {
		t.Fatalf("PublishEvent error: %v", err)
	}
	if err := h.hub.PublishEvent(ctx, "sess_1", &Message{Type: MessageTypeEnded}); err != nil {
		t.Fatalf("PublishEvent error: %v", err)
	}

	var events []Message
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg); err != nil {
			t.Fatalf("bad event payload: %v", err)
		}
		events = append(events, msg)
	}

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Type != MessageTypeText || events[0].Text != "hi" {
		t.Errorf("first event = %+v, want the text event", events[0])
	}
	if events[1].Type != MessageTypeEnded {
		t.Errorf("last event = %+v, want ended (the stream must close with the session)", events[1])
	}
}

func TestSessionToResponse(t *testing.T) {
	now := time.Now()
	rec := &session.Session{
		ID:           "sess_1",
		UserID:       "user_1",
		Model:        "models/test-model",
		Voice:        "Aoede",
		ConnectionID: "conn_1",
		Status:       session.StatusActive,
		StartedAt:    now,
		LastActiveAt: now,
		ClientTurns:  3,
		ModelTurns:   2,
		ToolCalls:    1,
		Reconnects:   1,
	}

	resp := sessionToResponse(rec)
	if resp.ID != "sess_1" || resp.UserID != "user_1" || resp.Model != "models/test-model" {
		t.Errorf("identity fields = %+v", resp)
	}
	if resp.Status != "active" || resp.Voice != "Aoede" || resp.ConnectionID != "conn_1" {
		t.Errorf("descriptive fields = %+v", resp)
	}
	if resp.ClientTurns != 3 || resp.ModelTurns != 2 || resp.ToolCalls != 1 || resp.Reconnects != 1 {
		t.Errorf("counters = %+v", resp)
	}
	if resp.StartedAt != now.Format(time.RFC3339) {
		t.Errorf("StartedAt = %s, want RFC3339", resp.StartedAt)
	}
}
