package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/live-gateway/internal/live"
	"github.com/eleven-am/live-gateway/internal/session"
	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/eleven-am/live-gateway/internal/transcript"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// fakeUpstream is a scripted stand-in for the model service. Each dial
// gets the setup handshake answered, then frames pushed through push are
// written to the channel and everything the client sends lands in
// received.
type fakeUpstream struct {
	server   *httptest.Server
	received chan []byte
	frames   chan string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()

	f := &fakeUpstream{
		received: make(chan []byte, 64),
		frames:   make(chan string, 64),
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		// First client frame is always the channel setup.
		_, setup, err := ws.ReadMessage()
		if err != nil {
			return
		}
		f.received <- setup
		if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"setupComplete":{}}`)); err != nil {
			return
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_, data, err := ws.ReadMessage()
				if err != nil {
					return
				}
				f.received <- data
			}
		}()

		for {
			select {
			case frame := <-f.frames:
				if err := ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeUpstream) push(frame string) { f.frames <- frame }

func (f *fakeUpstream) nextReceived(t *testing.T) string {
	t.Helper()
	select {
	case data := <-f.received:
		return string(data)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an upstream frame")
		return ""
	}
}

func upstreamConfig(endpoint string) live.Config {
	return live.Config{
		Endpoint: endpoint,
		APIKey:   "test-key",
		Model:    "models/test-model",
		Backoff: shared.BackoffConfig{
			Initial:     20 * time.Millisecond,
			MaxAttempts: 2,
			MaxDelay:    100 * time.Millisecond,
		},
		HealthInterval: 200 * time.Millisecond,
		SilenceFactor:  100,
		LogCapacity:    64,
	}
}

// sessionHarness wires a real device socket to a session backed by the
// fake upstream, miniredis, and an in-memory transcript store.
type sessionHarness struct {
	device      *websocket.Conn
	upstream    *fakeUpstream
	store       *session.Store
	transcripts *transcript.Store
	hub         *Hub
	rec         *session.Session
	sess        *Session
}

func newSessionHarness(t *testing.T) *sessionHarness {
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

	up := newFakeUpstream(t)

	rec := &session.Session{
		ID:           "sess_test",
		UserID:       "user_1",
		Model:        "models/test-model",
		ConnectionID: "conn_1",
	}
	if err := store.CreateSession(context.Background(), rec); err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}

	sessions := make(chan *Session, 1)
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := newWSConn(ws, discardLogger())
		sess := NewSession(conn, SessionConfig{
			Record:      rec,
			Upstream:    upstreamConfig("ws" + up.server.URL[4:]),
			Store:       store,
			Transcripts: transcripts,
			Hub:         hub,
			Logger:      discardLogger(),
		})
		if err := hub.Register(sess); err != nil {
			ws.Close()
			return
		}
		sessions <- sess
		sess.Run()
	}))
	t.Cleanup(gateway.Close)

	device, _, err := websocket.DefaultDialer.Dial("ws"+gateway.URL[4:], nil)
	if err != nil {
		t.Fatalf("device dial error: %v", err)
	}
	t.Cleanup(func() { device.Close() })

	var sess *Session
	select {
	case sess = <-sessions:
	case <-time.After(2 * time.Second):
		t.Fatal("session was never created")
	}

	return &sessionHarness{
		device:      device,
		upstream:    up,
		store:       store,
		transcripts: transcripts,
		hub:         hub,
		rec:         rec,
		sess:        sess,
	}
}

func (h *sessionHarness) send(t *testing.T, msg *Message) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal device frame: %v", err)
	}
	if err := h.device.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("device write error: %v", err)
	}
}

// waitFrame reads device frames until one of the wanted type arrives.
// State frames and other interleaved traffic are skipped.
func (h *sessionHarness) waitFrame(t *testing.T, want MessageType) *Message {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		_ = h.device.SetReadDeadline(deadline)
		_, data, err := h.device.ReadMessage()
		if err != nil {
			t.Fatalf("device read error waiting for %s: %v", want, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("bad device frame: %v", err)
		}
		if msg.Type == want {
			return &msg
		}
	}
}

// waitRecord polls the session record until check passes.
func (h *sessionHarness) waitRecord(t *testing.T, check func(*session.Session) bool) *session.Session {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := h.store.GetSession(context.Background(), h.rec.ID)
		if err == nil && check(rec) {
			return rec
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("session record never reached the expected shape")
	return nil
}

func (h *sessionHarness) waitTurns(t *testing.T, n int) []*transcript.Turn {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		turns, err := h.transcripts.ListBySession(context.Background(), h.rec.ID, h.rec.UserID)
		if err == nil && len(turns) >= n {
			return turns
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("transcript never reached %d turns", n)
	return nil
}

func TestSession_TextTurnRoundTrip(t *testing.T) {
	h := newSessionHarness(t)

	h.send(t, &Message{Type: MessageTypeText, Text: "hello"})

	setup := h.upstream.nextReceived(t)
	if !strings.Contains(setup, `"setup"`) || !strings.Contains(setup, "models/test-model") {
		t.Errorf("first upstream frame should be the channel setup, got %s", setup)
	}
	content := h.upstream.nextReceived(t)
	if !strings.Contains(content, `"clientContent"`) || !strings.Contains(content, "hello") {
		t.Errorf("text frame should become client content upstream, got %s", content)
	}

	h.waitFrame(t, MessageTypeReady)

	h.upstream.push(`{"serverContent":{"modelTurn":{"parts":[{"text":"hi there"}]}}}`)
	h.upstream.push(`{"serverContent":{"turnComplete":true}}`)

	if got := h.waitFrame(t, MessageTypeText); got.Text != "hi there" {
		t.Errorf("device text = %q, want %q", got.Text, "hi there")
	}
	h.waitFrame(t, MessageTypeTurnComplete)

	h.waitRecord(t, func(rec *session.Session) bool {
		return rec.ClientTurns == 1 && rec.ModelTurns == 1
	})

	turns := h.waitTurns(t, 2)
	if turns[0].Role != transcript.RoleUser || turns[0].Text != "hello" {
		t.Errorf("first turn = %s %q, want user hello", turns[0].Role, turns[0].Text)
	}
	if turns[1].Role != transcript.RoleModel || turns[1].Text != "hi there" {
		t.Errorf("second turn = %s %q, want model hi there", turns[1].Role, turns[1].Text)
	}
}

func TestSession_SetupShapesUpstreamChannel(t *testing.T) {
	h := newSessionHarness(t)

	h.send(t, &Message{
		Type:              MessageTypeSetup,
		SystemInstruction: "answer briefly",
		Modalities:        []string{"TEXT"},
		Voice:             "Puck",
	})

	setup := h.upstream.nextReceived(t)
	if !strings.Contains(setup, "answer briefly") {
		t.Errorf("setup should carry the system instruction, got %s", setup)
	}
	if !strings.Contains(setup, `"responseModalities":["TEXT"]`) {
		t.Errorf("setup should carry the modalities, got %s", setup)
	}
	if !strings.Contains(setup, "Puck") {
		t.Errorf("setup should carry the voice, got %s", setup)
	}
}

func TestSession_AudioFrames(t *testing.T) {
	h := newSessionHarness(t)

	pcm := base64.StdEncoding.EncodeToString([]byte{0x01, 0x00, 0x02, 0x00})
	h.send(t, &Message{Type: MessageTypeAudio, Data: pcm, MIMEType: "audio/pcm;rate=16000"})

	h.upstream.nextReceived(t) // setup
	input := h.upstream.nextReceived(t)
	if !strings.Contains(input, `"realtimeInput"`) || !strings.Contains(input, "audio/pcm;rate=16000") {
		t.Errorf("audio frame should become realtime input upstream, got %s", input)
	}

	h.send(t, &Message{Type: MessageTypeAudioEnd})
	end := h.upstream.nextReceived(t)
	if !strings.Contains(end, `"audioStreamEnd":true`) {
		t.Errorf("audio_end should surface as an audio stream end, got %s", end)
	}
}

func TestSession_InvalidAudioRejected(t *testing.T) {
	h := newSessionHarness(t)

	h.send(t, &Message{Type: MessageTypeAudio, Data: "not base64!!"})

	got := h.waitFrame(t, MessageTypeError)
	if got.Error == nil || got.Error.Code != "invalid_audio" {
		t.Errorf("error frame = %+v, want invalid_audio", got.Error)
	}
	if h.sess.UpstreamState() != "idle" {
		t.Errorf("bad audio must not dial upstream, state = %s", h.sess.UpstreamState())
	}
}

func TestSession_ToolResultForwarded(t *testing.T) {
	h := newSessionHarness(t)

	h.send(t, &Message{Type: MessageTypeToolResult, Results: []live.ToolResult{{
		ID:       "call_1",
		Name:     "get_weather",
		Response: map[string]any{"forecast": "sunny"},
	}}})

	h.upstream.nextReceived(t) // setup
	resp := h.upstream.nextReceived(t)
	if !strings.Contains(resp, `"toolResponse"`) || !strings.Contains(resp, "call_1") {
		t.Errorf("tool result should become a tool response upstream, got %s", resp)
	}
}

func TestSession_ToolCallReachesDevice(t *testing.T) {
	h := newSessionHarness(t)

	h.send(t, &Message{Type: MessageTypeText, Text: "weather?"})
	h.waitFrame(t, MessageTypeReady)

	h.upstream.push(`{"toolCall":{"functionCalls":[{"id":"call_1","name":"get_weather","args":{"city":"Lagos"}}]}}`)

	got := h.waitFrame(t, MessageTypeToolCall)
	if len(got.Calls) != 1 || got.Calls[0].Name != "get_weather" || got.Calls[0].ID != "call_1" {
		t.Errorf("tool call frame = %+v, want get_weather/call_1", got.Calls)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		metrics, err := h.store.GetMetrics(context.Background(), "models/test-model", 1)
		if err == nil && len(metrics) > 0 && metrics[0].ToolCalls == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("tool call metric was never recorded")
}

func TestSession_InterruptedKeepsFragment(t *testing.T) {
	h := newSessionHarness(t)

	h.send(t, &Message{Type: MessageTypeText, Text: "tell me a story"})
	h.waitFrame(t, MessageTypeReady)

	h.upstream.push(`{"serverContent":{"outputTranscription":{"text":"once upon a"}}}`)
	h.waitFrame(t, MessageTypeOutputTranscript)

	h.upstream.push(`{"serverContent":{"interrupted":true}}`)
	h.waitFrame(t, MessageTypeInterrupted)

	turns := h.waitTurns(t, 2)
	last := turns[len(turns)-1]
	if last.Role != transcript.RoleModel || last.Text != "once upon a" {
		t.Errorf("fragment turn = %s %q, want the cut-off model text", last.Role, last.Text)
	}
	if last.Final {
		t.Error("an interrupted turn must not be sealed as final")
	}
}

func TestSession_EndFrameSealsRecord(t *testing.T) {
	h := newSessionHarness(t)

	h.send(t, &Message{Type: MessageTypeText, Text: "hello"})
	h.waitFrame(t, MessageTypeReady)

	h.send(t, &Message{Type: MessageTypeEnd})

	h.waitRecord(t, func(rec *session.Session) bool { return rec.Status == session.StatusEnded })

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && h.hub.SessionCount() > 0 {
		time.Sleep(20 * time.Millisecond)
	}
	if h.hub.SessionCount() != 0 {
		t.Error("session should unregister from the hub on close")
	}
}

func TestSession_Accessors(t *testing.T) {
	hub := newTestHub(t)
	sess := stubSession(hub, "sess_42")

	if sess.ID() != "sess_42" {
		t.Errorf("ID = %s, want sess_42", sess.ID())
	}
	if sess.UserID() != "user_1" {
		t.Errorf("UserID = %s, want user_1", sess.UserID())
	}
	if sess.Model() != "models/m" {
		t.Errorf("Model = %s, want models/m", sess.Model())
	}
	if sess.UpstreamState() != "idle" {
		t.Errorf("UpstreamState before dial = %s, want idle", sess.UpstreamState())
	}
	if sess.AudioBytes() != 0 {
		t.Errorf("AudioBytes before dial = %d, want 0", sess.AudioBytes())
	}
	if sess.LogEntries() != nil {
		t.Error("LogEntries before dial should be nil")
	}
	if _, err := sess.RenderAudio(); err == nil {
		t.Error("RenderAudio before dial should error")
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		mime     string
		fallback int
		want     int
	}{
		{"audio/pcm;rate=24000", 16000, 24000},
		{"audio/pcm; rate=48000", 16000, 48000},
		{"audio/pcm", 16000, 16000},
		{"", 24000, 24000},
		{"audio/pcm;rate=abc", 16000, 16000},
		{"audio/pcm;rate=-1", 16000, 16000},
	}
	for _, tt := range tests {
		if got := parseRate(tt.mime, tt.fallback); got != tt.want {
			t.Errorf("parseRate(%q, %d) = %d, want %d", tt.mime, tt.fallback, got, tt.want)
		}
	}
}

func TestSplitCategory(t *testing.T) {
	tests := []struct {
		category  string
		direction string
		bare      string
	}{
		{"server.turnComplete", "recv", "turnComplete"},
		{"client.content", "send", "content"},
		{"server.serverContent.modelTurn", "recv", "serverContent.modelTurn"},
		{"weird", "", "weird"},
	}
	for _, tt := range tests {
		direction, bare := splitCategory(tt.category)
		if direction != tt.direction || bare != tt.bare {
			t.Errorf("splitCategory(%q) = (%q, %q), want (%q, %q)",
				tt.category, direction, bare, tt.direction, tt.bare)
		}
	}
}
