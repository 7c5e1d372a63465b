package live

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 15 * time.Second
	defaultMaxMessageSize   = 8 * 1024 * 1024
	writeWait               = 10 * time.Second
)

// Client owns one streaming session against the upstream generation
// service. All inbound traffic reaches the owner through the Dispatcher's
// callbacks; send operations fail fast with ErrNotConnected instead of
// buffering when no channel is owned.
//
// Lost connections and failed opens are retried with exponential backoff
// until the attempt ceiling, after which ErrReconnectExhausted is emitted
// and the client stays down until the owner calls Connect again. An
// owner-initiated Disconnect never triggers reconnection.
type Client struct {
	cfg      Config
	opts     SessionOptions
	dispatch *Dispatcher
	logger   *slog.Logger

	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	target uint64

	writeMu sync.Mutex

	monitor   *monitor
	backoff   *scheduler
	assembler *Assembler
	wire      *StreamLog
}

func New(cfg Config, opts SessionOptions, dispatch *Dispatcher, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if dispatch == nil {
		dispatch = NewDispatcher(Callbacks{}, logger)
	}
	cfg = cfg.withDefaults()

	c := &Client{
		cfg:       cfg,
		opts:      opts,
		dispatch:  dispatch,
		logger:    logger.With("component", "live_client", "model", cfg.Model),
		assembler: NewAssembler(),
		wire:      NewStreamLog(cfg.LogCapacity),
	}
	c.monitor = newMonitor(cfg.HealthInterval, cfg.SilenceFactor, c.onPeerSilent, logger)
	c.backoff = newScheduler(cfg.Backoff, logger)
	return c
}

// State reports the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Assembler exposes the audio accumulation buffer for rendering and
// clearing by the owner.
func (c *Client) Assembler() *Assembler {
	return c.assembler
}

// WireLog exposes the bounded traffic log.
func (c *Client) WireLog() *StreamLog {
	return c.wire
}

// Connect opens the channel and sends the setup frame. It fails without
// touching the network unless the client is fully Disconnected. Open
// failures hand off to the reconnect scheduler before returning.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.state = StateConnecting
	c.target++
	target := c.target
	c.mu.Unlock()
	c.dispatch.emitStateChange(StateConnecting)

	conn, err := c.dial(ctx)
	if err != nil {
		c.failConnect(target)
		return fmt.Errorf("open channel: %w", err)
	}

	if err := c.sendSetup(conn); err != nil {
		conn.Close()
		c.failConnect(target)
		return fmt.Errorf("send setup: %w", err)
	}

	c.mu.Lock()
	if c.target != target {
		// Disconnect won the race while we were dialing.
		c.mu.Unlock()
		conn.Close()
		return ErrNotConnected
	}
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	c.backoff.Reset()
	c.monitor.Start()
	c.wire.Append("client.open", c.cfg.Model)
	c.logger.Info("session established")
	c.dispatch.emitStateChange(StateConnected)

	go c.readLoop(conn, target)
	return nil
}

func (c *Client) failConnect(target uint64) {
	c.mu.Lock()
	stale := c.target != target
	if !stale {
		c.state = StateDisconnected
	}
	c.mu.Unlock()
	if stale {
		return
	}
	c.dispatch.emitStateChange(StateDisconnected)
	c.scheduleReconnect(target)
}

// Disconnect tears the session down and suppresses any pending reconnect.
// Reports whether a channel was actually owned. Safe to call repeatedly.
func (c *Client) Disconnect() bool {
	c.backoff.CancelPending()
	c.monitor.Stop()

	c.mu.Lock()
	c.target++
	conn := c.conn
	c.conn = nil
	prev := c.state
	c.state = StateDisconnected
	c.mu.Unlock()

	c.backoff.Reset()

	if conn != nil {
		deadline := time.Now().Add(writeWait)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}

	if prev != StateDisconnected {
		c.dispatch.emitStateChange(StateDisconnected)
	}
	if conn == nil {
		return false
	}
	c.wire.Append("client.close", "")
	c.logger.Info("session closed by owner")
	return true
}

// ValidateSession reports whether the channel is owned, Connected, and the
// peer has produced traffic recently enough to be considered alive.
func (c *Client) ValidateSession() bool {
	c.mu.Lock()
	ok := c.conn != nil && c.state == StateConnected
	c.mu.Unlock()
	if !ok {
		return false
	}
	return c.monitor.SinceLastSeen() < 2*c.monitor.interval
}

// Send delivers one user turn. Parts are wrapped in a single user-role
// turn; turnComplete tells the model whether to start responding.
func (c *Client) Send(parts []Part, turnComplete bool) error {
	conn := c.ownedConn()
	if conn == nil {
		return ErrNotConnected
	}
	frame := clientContentFrame{ClientContent: clientContent{
		Turns:        []content{{Role: "user", Parts: parts}},
		TurnComplete: turnComplete,
	}}
	c.wire.Append("client.content", fmt.Sprintf("%d parts", len(parts)))
	return c.writeJSON(conn, frame)
}

// SendText is Send with a single text part and the turn marked complete.
func (c *Client) SendText(text string) error {
	return c.Send([]Part{{Text: text}}, true)
}

// SendRealtimeInput forwards media chunks on the realtime channel, one
// frame per chunk. Chunk kinds only influence logging; the wire format is
// identical for audio and images.
func (c *Client) SendRealtimeInput(chunks []Blob) error {
	conn := c.ownedConn()
	if conn == nil {
		return ErrNotConnected
	}

	var hasAudio, hasImage bool
	for _, chunk := range chunks {
		if isAudioChunk(chunk) {
			hasAudio = true
		}
		if isImageChunk(chunk) {
			hasImage = true
		}
	}
	c.logger.Debug("forwarding realtime input",
		"chunks", len(chunks), "audio", hasAudio, "image", hasImage)
	c.wire.Append("client.realtimeInput", fmt.Sprintf("chunks=%d audio=%t image=%t", len(chunks), hasAudio, hasImage))

	for _, chunk := range chunks {
		frame := realtimeInputFrame{RealtimeInput: realtimeInput{MediaChunks: []Blob{chunk}}}
		if err := c.writeJSON(conn, frame); err != nil {
			return err
		}
	}
	return nil
}

// EndAudioStream signals the end of the caller's audio activity. Delivery
// is best effort; failures are logged, never returned.
func (c *Client) EndAudioStream() {
	conn := c.ownedConn()
	if conn == nil {
		c.logger.Debug("audio stream end skipped, no channel")
		return
	}
	frame := realtimeInputFrame{RealtimeInput: realtimeInput{AudioStreamEnd: true}}
	if err := c.writeJSON(conn, frame); err != nil {
		c.logger.Warn("audio stream end not delivered", "error", err)
		return
	}
	c.wire.Append("client.audioStreamEnd", "")
}

// SendToolResponse answers outstanding tool calls. Empty batches are
// ignored without error or traffic.
func (c *Client) SendToolResponse(results []ToolResult) error {
	if len(results) == 0 {
		c.logger.Debug("ignoring empty tool response batch")
		return nil
	}
	conn := c.ownedConn()
	if conn == nil {
		return ErrNotConnected
	}
	c.wire.Append("client.toolResponse", fmt.Sprintf("%d responses", len(results)))
	return c.writeJSON(conn, toolResponseFrame{ToolResponse: toolResponse{FunctionResponses: results}})
}

func (c *Client) ownedConn() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected {
		return nil
	}
	return c.conn
}

func (c *Client) writeJSON(conn *websocket.Conn, v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if c.cfg.APIKey != "" {
		q := u.Query()
		q.Set("key", c.cfg.APIKey)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", u.Host, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}
	return conn, nil
}

func (c *Client) sendSetup(conn *websocket.Conn) error {
	payload := setupPayload{Model: c.cfg.Model}

	gen := &generationConfig{ResponseModalities: c.opts.ResponseModalities}
	if c.opts.VoiceName != "" {
		gen.SpeechConfig = &speechConfig{
			VoiceConfig: &voiceConfig{
				PrebuiltVoiceConfig: &prebuiltVoice{VoiceName: c.opts.VoiceName},
			},
		}
	}
	if len(gen.ResponseModalities) > 0 || gen.SpeechConfig != nil {
		payload.GenerationConfig = gen
	}

	if c.opts.SystemInstruction != "" {
		payload.SystemInstruction = &content{Parts: []Part{{Text: c.opts.SystemInstruction}}}
	}
	if len(c.opts.Tools) > 0 {
		payload.Tools = []toolSpec{{FunctionDeclarations: c.opts.Tools}}
	}
	if c.opts.TranscribeInput {
		payload.InputAudioTranscription = &struct{}{}
	}
	if c.opts.TranscribeOutput {
		payload.OutputAudioTranscription = &struct{}{}
	}

	c.wire.Append("client.setup", c.cfg.Model)
	return c.writeJSON(conn, setupFrame{Setup: payload})
}

func (c *Client) readLoop(conn *websocket.Conn, target uint64) {
	conn.SetReadLimit(c.cfg.MaxMessageSize)
	cl := &classifier{
		dispatch:  c.dispatch,
		assembler: c.assembler,
		wire:      c.wire,
		logger:    c.logger,
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleReadClosed(target, err)
			return
		}
		// Liveness first, whatever the frame turns out to be.
		c.monitor.Touch()
		cl.handle(data)
	}
}

// handleReadClosed runs when the read loop exits. Owner-initiated closes
// and health-initiated closes bump the target first, so only genuinely
// unexpected closures reach the reconnect path.
func (c *Client) handleReadClosed(target uint64, err error) {
	c.mu.Lock()
	if c.target != target {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	c.monitor.Stop()
	c.dispatch.emitStateChange(StateDisconnected)

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		c.wire.Append("server.close", "normal")
		c.logger.Info("channel closed by peer")
		return
	}

	c.wire.Append("server.close", err.Error())
	c.logger.Error("channel lost", "error", err)
	c.dispatch.emitError(fmt.Errorf("transport: %w", err))
	c.scheduleReconnect(target)
}

// onPeerSilent fires from the health monitor. The channel is closed here;
// bumping the target keeps the read loop's own exit from double-handling.
func (c *Client) onPeerSilent(silence time.Duration) {
	c.mu.Lock()
	if c.conn == nil || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	c.target++
	target := c.target
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	conn.Close()
	c.wire.Append("health.dead", silence.String())
	c.logger.Error("closing unresponsive session", "silence", silence)
	c.dispatch.emitStateChange(StateDisconnected)
	c.dispatch.emitError(fmt.Errorf("%w: silent for %s", ErrPeerSilent, silence))
	c.scheduleReconnect(target)
}

func (c *Client) scheduleReconnect(target uint64) {
	delay, ok := c.backoff.Schedule(func() { c.retry(target) })
	if !ok {
		c.wire.Append("client.reconnect", "exhausted")
		c.logger.Error("reconnect attempts exhausted", "attempts", c.backoff.Attempts())
		c.dispatch.emitError(ErrReconnectExhausted)
		return
	}
	c.wire.Append("client.reconnect", delay.String())
	c.logger.Warn("reconnect scheduled", "delay", delay, "attempt", c.backoff.Attempts())
}

// retry fires from the reconnect timer. It re-checks that nothing changed
// since scheduling: still Disconnected, same target generation.
func (c *Client) retry(target uint64) {
	c.mu.Lock()
	stale := c.target != target || c.state != StateDisconnected
	c.mu.Unlock()
	if stale {
		c.logger.Debug("skipping stale reconnect attempt")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandshakeTimeout)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		c.logger.Warn("reconnect attempt failed", "error", err)
	}
}
