package gateway

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eleven-am/live-gateway/internal/audio"
	"github.com/eleven-am/live-gateway/internal/live"
	"github.com/eleven-am/live-gateway/internal/session"
	"github.com/eleven-am/live-gateway/internal/transcript"
	"github.com/gorilla/websocket"
)

const (
	// The model ingests 16 kHz mono PCM and speaks 24 kHz mono PCM.
	upstreamInputRate  = 16000
	upstreamOutputRate = 24000

	recordWriteTimeout = 5 * time.Second
	indexTimeout       = 10 * time.Second
)

// SessionConfig carries the dependencies one device session needs.
type SessionConfig struct {
	Record      *session.Session
	Upstream    live.Config
	Options     live.SessionOptions
	ClientRate  int
	Store       *session.Store
	Transcripts *transcript.Store
	Embeddings  transcript.EmbeddingService
	Hub         *Hub
	Logger      *slog.Logger
}

// Session binds one device socket to one upstream model channel. The
// upstream is dialed lazily on the first device frame, so a setup frame
// can still shape the channel options.
//
// Device frames arrive on the socket's read goroutine; upstream events
// arrive on the model client's reader. Both funnel through the session's
// mutex, and everything the gateway emits is mirrored into the hub so
// observers on other nodes can follow along.
type Session struct {
	id     string
	userID string
	model  string

	conn        *wsConn
	store       *session.Store
	transcripts *transcript.Store
	embeddings  transcript.EmbeddingService
	hub         *Hub
	logger      *slog.Logger

	upstream   live.Config
	opts       live.SessionOptions
	clientRate int

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	rec         *session.Session
	client      *live.Client
	ready       bool
	closed      bool
	endStatus   session.Status
	inputText   strings.Builder
	outputText  strings.Builder
	turnStarted time.Time
	lastUsage   live.Usage
}

func NewSession(conn *wsConn, cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:          cfg.Record.ID,
		userID:      cfg.Record.UserID,
		model:       cfg.Record.Model,
		conn:        conn,
		store:       cfg.Store,
		transcripts: cfg.Transcripts,
		embeddings:  cfg.Embeddings,
		hub:         cfg.Hub,
		logger:      logger.With("session_id", cfg.Record.ID),
		upstream:    cfg.Upstream,
		opts:        cfg.Options,
		clientRate:  cfg.ClientRate,
		ctx:         ctx,
		cancel:      cancel,
		rec:         cfg.Record,
		endStatus:   session.StatusEnded,
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }
func (s *Session) Model() string  { return s.model }

// UpstreamState reports the lifecycle state of the model channel, or
// "idle" before the first dial.
func (s *Session) UpstreamState() string {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client == nil {
		return "idle"
	}
	return client.State().String()
}

// Run pumps the device socket until it closes, then tears the session
// down. Blocks for the lifetime of the connection.
func (s *Session) Run() {
	go s.conn.writePump()
	s.conn.readPump(s.handleFrame)
	s.Close("device disconnected")
}

// RenderAudio returns everything the model has spoken so far as one WAV
// file. Errors when the upstream was never dialed.
func (s *Session) RenderAudio() ([]byte, error) {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client == nil {
		return nil, errors.New("no upstream channel")
	}
	return client.Assembler().Render()
}

// AudioBytes reports how much model PCM has accumulated.
func (s *Session) AudioBytes() int {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client == nil {
		return 0
	}
	return len(client.Assembler().Bytes())
}

// LogEntries snapshots the upstream wire log, oldest first.
func (s *Session) LogEntries() []live.StreamingLogEntry {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.WireLog().Entries()
}

// handleFrame processes one device frame. Runs on the socket's read
// goroutine, so frames are handled strictly in arrival order.
func (s *Session) handleFrame(msg *Message) {
	s.mu.Lock()
	s.rec.LastActiveAt = time.Now()
	s.mu.Unlock()

	switch msg.Type {
	case MessageTypeSetup:
		s.applySetup(msg)
		s.ensureUpstream()

	case MessageTypeText:
		if msg.Text == "" {
			return
		}
		client := s.ensureUpstream()
		if client == nil {
			return
		}
		if err := client.SendText(msg.Text); err != nil {
			s.sendError("upstream_send_failed", err.Error())
			return
		}
		s.recordClientTurn(msg.Text)

	case MessageTypeAudio:
		pcm, err := base64.StdEncoding.DecodeString(msg.Data)
		if err != nil {
			s.sendError("invalid_audio", "audio data must be base64 PCM")
			return
		}
		if len(pcm) == 0 {
			return
		}
		client := s.ensureUpstream()
		if client == nil {
			return
		}
		if rate := parseRate(msg.MIMEType, upstreamInputRate); rate != upstreamInputRate {
			pcm = audio.ResampleBytes(pcm, rate, upstreamInputRate)
		}
		blob := live.Blob{
			MIMEType: fmt.Sprintf("audio/pcm;rate=%d", upstreamInputRate),
			Data:     base64.StdEncoding.EncodeToString(pcm),
		}
		if err := client.SendRealtimeInput([]live.Blob{blob}); err != nil {
			s.sendError("upstream_send_failed", err.Error())
		}

	case MessageTypeAudioEnd:
		client := s.ensureUpstream()
		if client == nil {
			return
		}
		client.EndAudioStream()

	case MessageTypeImage:
		if msg.Data == "" {
			return
		}
		client := s.ensureUpstream()
		if client == nil {
			return
		}
		mime := msg.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		if err := client.SendRealtimeInput([]live.Blob{{MIMEType: mime, Data: msg.Data}}); err != nil {
			s.sendError("upstream_send_failed", err.Error())
		}

	case MessageTypeToolResult:
		if len(msg.Results) == 0 {
			return
		}
		client := s.ensureUpstream()
		if client == nil {
			return
		}
		if err := client.SendToolResponse(msg.Results); err != nil {
			s.sendError("upstream_send_failed", err.Error())
		}

	case MessageTypeEnd:
		_ = s.conn.CloseWithStatus(websocket.CloseNormalClosure, "session ended")

	default:
		s.logger.Warn("unknown frame type", "type", string(msg.Type))
	}
}

// applySetup folds a setup frame into the channel options. Only honored
// before the upstream is dialed; the model does not take new options
// mid-channel.
func (s *Session) applySetup(msg *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		s.logger.Warn("setup frame after upstream dial, ignoring")
		return
	}

	if msg.SystemInstruction != "" {
		s.opts.SystemInstruction = msg.SystemInstruction
	}
	if len(msg.Modalities) > 0 {
		s.opts.ResponseModalities = msg.Modalities
	}
	if msg.Voice != "" {
		s.opts.VoiceName = msg.Voice
		s.rec.Voice = msg.Voice
	}
	if len(msg.Tools) > 0 {
		s.opts.Tools = msg.Tools
	}
}

// ensureUpstream dials the model channel on first use. A failed dial is
// not terminal: the client keeps retrying on its backoff schedule and the
// device hears about progress through state frames. Returns nil only once
// the session is closed.
func (s *Session) ensureUpstream() *live.Client {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.client != nil {
		client := s.client
		s.mu.Unlock()
		return client
	}
	opts := s.opts
	s.mu.Unlock()

	dispatcher := live.NewDispatcher(s.callbacks(), s.logger)
	client := live.New(s.upstream, opts, dispatcher, s.logger)

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	if err := client.Connect(s.ctx); err != nil {
		s.logger.Error("upstream connect failed", "error", err)
		s.sendError("upstream_connect_failed", err.Error())
	}
	return client
}

func (s *Session) callbacks() live.Callbacks {
	return live.Callbacks{
		OnReady:              s.onReady,
		OnText:               s.onText,
		OnAudio:              s.onAudio,
		OnContent:            s.onContent,
		OnToolCall:           s.onToolCall,
		OnToolCancellation:   s.onToolCancellation,
		OnInterrupted:        s.onInterrupted,
		OnTurnComplete:       s.onTurnComplete,
		OnGenerationComplete: s.onGenerationComplete,
		OnInputTranscript:    s.onInputTranscript,
		OnOutputTranscript:   s.onOutputTranscript,
		OnUsage:              s.onUsage,
		OnGoAway:             s.onGoAway,
		OnStateChange:        s.onStateChange,
		OnError:              s.onUpstreamError,
	}
}

func (s *Session) onReady() {
	s.mu.Lock()
	first := !s.ready
	s.ready = true
	if !first {
		s.rec.Reconnects++
	}
	s.mu.Unlock()

	if !first {
		s.hub.NoteRedial()
		s.updateRecord()
	}
	s.emit(&Message{Type: MessageTypeReady})
}

func (s *Session) onText(text string) {
	s.noteModelOutput()

	s.mu.Lock()
	s.outputText.WriteString(text)
	s.mu.Unlock()

	s.emit(&Message{Type: MessageTypeText, Text: text})
}

func (s *Session) onAudio(chunk live.AudioChunk) {
	s.noteModelOutput()

	pcm := chunk.Data
	mime := chunk.MIMEType
	if rate := parseRate(mime, upstreamOutputRate); s.clientRate > 0 && rate != s.clientRate {
		pcm = audio.ResampleBytes(pcm, rate, s.clientRate)
		mime = fmt.Sprintf("audio/pcm;rate=%d", s.clientRate)
	}

	s.emit(&Message{
		Type:     MessageTypeAudio,
		Data:     base64.StdEncoding.EncodeToString(pcm),
		MIMEType: mime,
	})
}

func (s *Session) onContent(parts []live.Part) {
	s.noteModelOutput()
	s.emit(&Message{Type: MessageTypeContent, Parts: parts})
}

func (s *Session) onToolCall(calls []live.FunctionCall) {
	s.mu.Lock()
	s.rec.ToolCalls += int64(len(calls))
	s.mu.Unlock()

	s.countMetric("tool_calls", s.store.IncrementToolCalls(s.ctx, s.model, int64(len(calls))))
	s.emit(&Message{Type: MessageTypeToolCall, Calls: calls})
}

func (s *Session) onToolCancellation(ids []string) {
	s.emit(&Message{Type: MessageTypeToolCancel, IDs: ids})
}

func (s *Session) onInterrupted() {
	s.countMetric("interruptions", s.store.IncrementInterruptions(s.ctx, s.model))
	// The cut-off model turn is kept, marked as a fragment.
	s.flushOutput(false)
	s.emit(&Message{Type: MessageTypeInterrupted})
}

func (s *Session) onTurnComplete() {
	s.mu.Lock()
	s.rec.ModelTurns++
	s.mu.Unlock()

	s.flushInput(true)
	s.flushOutput(true)
	s.countMetric("model_turns", s.store.IncrementModelTurns(s.ctx, s.model))
	s.updateRecord()
	s.emit(&Message{Type: MessageTypeTurnComplete})
}

func (s *Session) onGenerationComplete() {
	s.emit(&Message{Type: MessageTypeGenerationComplete})
}

func (s *Session) onInputTranscript(t live.Transcript) {
	s.mu.Lock()
	s.inputText.WriteString(t.Text)
	s.mu.Unlock()

	s.emit(&Message{Type: MessageTypeInputTranscript, Text: t.Text, Final: t.Finished})
	if t.Finished {
		s.flushInput(true)
	}
}

func (s *Session) onOutputTranscript(t live.Transcript) {
	s.mu.Lock()
	s.outputText.WriteString(t.Text)
	s.mu.Unlock()

	s.emit(&Message{Type: MessageTypeOutputTranscript, Text: t.Text, Final: t.Finished})
}

func (s *Session) onUsage(u live.Usage) {
	s.mu.Lock()
	last := s.lastUsage
	s.lastUsage = u
	s.mu.Unlock()

	// Upstream reports cumulative counts per channel; they restart from
	// zero after a redial.
	dp := u.PromptTokens - last.PromptTokens
	dr := u.ResponseTokens - last.ResponseTokens
	if dp < 0 {
		dp = u.PromptTokens
	}
	if dr < 0 {
		dr = u.ResponseTokens
	}
	if dp > 0 || dr > 0 {
		s.countMetric("tokens", s.store.AddTokens(s.ctx, s.model, int64(dp), int64(dr)))
	}

	s.emit(&Message{Type: MessageTypeUsage, Usage: &UsageInfo{
		PromptTokens:   u.PromptTokens,
		ResponseTokens: u.ResponseTokens,
		TotalTokens:    u.TotalTokens,
	}})
}

func (s *Session) onGoAway(timeLeft time.Duration) {
	s.emit(&Message{Type: MessageTypeGoAway, TimeLeftMs: timeLeft.Milliseconds()})
}

func (s *Session) onStateChange(st live.State) {
	s.emit(&Message{Type: MessageTypeState, State: st.String()})
}

func (s *Session) onUpstreamError(err error) {
	s.countMetric("errors", s.store.IncrementErrors(s.ctx, s.model))

	if errors.Is(err, live.ErrReconnectExhausted) {
		s.mu.Lock()
		s.endStatus = session.StatusError
		s.mu.Unlock()

		s.sendError("upstream_exhausted", err.Error())
		_ = s.conn.CloseWithStatus(websocket.CloseTryAgainLater, "upstream unavailable")
		return
	}

	s.sendError("upstream_error", err.Error())
}

// recordClientTurn books a typed text prompt: it is already a complete
// user turn, unlike voice, which accumulates through input transcripts.
func (s *Session) recordClientTurn(text string) {
	s.mu.Lock()
	s.rec.ClientTurns++
	s.turnStarted = time.Now()
	s.mu.Unlock()

	s.countMetric("client_turns", s.store.IncrementClientTurns(s.ctx, s.model))
	s.storeTurn(transcript.RoleUser, text, true)
}

// noteModelOutput records turn latency on the first model output after a
// completed user turn.
func (s *Session) noteModelOutput() {
	s.mu.Lock()
	started := s.turnStarted
	s.turnStarted = time.Time{}
	s.mu.Unlock()

	if started.IsZero() {
		return
	}
	s.countMetric("latency", s.store.RecordLatency(s.ctx, s.model, time.Since(started).Milliseconds()))
}

func (s *Session) flushInput(final bool) {
	s.mu.Lock()
	text := strings.TrimSpace(s.inputText.String())
	s.inputText.Reset()
	if text != "" {
		s.rec.ClientTurns++
		s.turnStarted = time.Now()
	}
	s.mu.Unlock()

	if text == "" {
		return
	}
	s.countMetric("client_turns", s.store.IncrementClientTurns(s.ctx, s.model))
	s.storeTurn(transcript.RoleUser, text, final)
}

func (s *Session) flushOutput(final bool) {
	s.mu.Lock()
	text := strings.TrimSpace(s.outputText.String())
	s.outputText.Reset()
	s.mu.Unlock()

	if text == "" {
		return
	}
	s.storeTurn(transcript.RoleModel, text, final)
}

func (s *Session) storeTurn(role transcript.Role, text string, final bool) {
	if s.transcripts == nil {
		return
	}

	turn := &transcript.Turn{
		SessionID: s.id,
		UserID:    s.userID,
		Role:      role,
		Text:      text,
		Final:     final,
	}
	if err := s.transcripts.Create(s.ctx, turn); err != nil {
		s.logger.Error("failed to store transcript turn", "error", err)
		return
	}

	if s.embeddings != nil && final {
		go s.indexTurn(turn.ID, text)
	}
}

// indexTurn embeds one sealed turn for semantic search. Runs off the
// event path; a failed index is logged and the turn stays searchable by
// session listing only.
func (s *Session) indexTurn(turnID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	embedding, err := s.embeddings.Generate(ctx, text)
	if err != nil {
		s.logger.Error("failed to embed transcript turn", "error", err, "turn_id", turnID)
		return
	}
	if err := s.transcripts.UpsertEmbedding(ctx, turnID, embedding); err != nil {
		s.logger.Error("failed to index transcript turn", "error", err, "turn_id", turnID)
	}
}

// emit delivers one event to the device and mirrors it into the hub.
func (s *Session) emit(msg *Message) {
	msg.SessionID = s.id
	msg.Timestamp = time.Now()
	s.conn.Send(msg)

	if err := s.hub.PublishEvent(s.ctx, s.id, msg); err != nil && s.ctx.Err() == nil {
		s.logger.Warn("failed to publish session event", "error", err, "type", string(msg.Type))
	}
}

func (s *Session) sendError(code, message string) {
	s.emit(&Message{Type: MessageTypeError, Error: &ErrorInfo{Code: code, Message: message}})
}

func (s *Session) countMetric(name string, err error) {
	if err != nil {
		s.logger.Warn("failed to record metric", "metric", name, "error", err)
	}
}

func (s *Session) updateRecord() {
	s.mu.Lock()
	s.rec.LastActiveAt = time.Now()
	rec := *s.rec
	s.mu.Unlock()

	if err := s.store.UpdateSession(s.ctx, &rec); err != nil {
		s.logger.Warn("failed to update session record", "error", err)
	}
}

// Close tears the session down: hangs up the upstream, flushes leftover
// transcript fragments, seals the record, and tells observers the stream
// is over. Safe to call more than once.
func (s *Session) Close(reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	client := s.client
	status := s.endStatus
	s.mu.Unlock()

	if client != nil {
		client.Disconnect()
	}

	s.flushInput(false)
	s.flushOutput(false)

	s.mu.Lock()
	s.rec.Status = status
	s.rec.LastActiveAt = time.Now()
	rec := *s.rec
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), recordWriteTimeout)
	defer cancel()
	if err := s.store.UpdateSession(ctx, &rec); err != nil {
		s.logger.Warn("failed to seal session record", "error", err)
	}

	s.emit(&Message{Type: MessageTypeEnded})
	s.hub.Unregister(s.id)
	s.cancel()
	_ = s.conn.CloseWithStatus(websocket.CloseNormalClosure, reason)

	s.logger.Info("session closed", "reason", reason)
}

// parseRate pulls the sample rate from a mime like "audio/pcm;rate=24000".
func parseRate(mime string, fallback int) int {
	for _, part := range strings.Split(mime, ";") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(part), "rate="); ok {
			if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return fallback
}
