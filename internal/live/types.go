package live

import (
	"errors"
	"time"

	"github.com/eleven-am/live-gateway/internal/shared"
)

// State is the connection lifecycle of a Client.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Errors returned by Client operations. Malformed inbound frames and empty
// tool response batches are logged, never surfaced as errors.
var (
	ErrAlreadyConnected   = errors.New("live: session already connecting or connected")
	ErrNotConnected       = errors.New("live: no channel owned")
	ErrReconnectExhausted = errors.New("live: reconnect attempts exhausted")
	ErrPeerSilent         = errors.New("live: peer silent past health threshold")
)

const (
	// DefaultEndpoint is the bidirectional streaming endpoint of the
	// upstream generation service.
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultModel is used when the caller does not pick one.
	DefaultModel = "models/gemini-2.0-flash-exp"
)

// Config carries everything a Client needs to reach the upstream service
// and to police its own connection. Zero values are filled with defaults.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string

	// Backoff shapes reconnect pacing after lost or failed connections.
	Backoff shared.BackoffConfig

	// HealthInterval is how often inbound silence is checked. A peer quiet
	// for SilenceFactor consecutive intervals is declared dead.
	HealthInterval time.Duration
	SilenceFactor  int

	HandshakeTimeout time.Duration
	MaxMessageSize   int64

	// LogCapacity bounds the in-memory wire traffic log.
	LogCapacity int
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	c.Backoff = normalizeBackoff(c.Backoff)
	if c.HealthInterval <= 0 {
		c.HealthInterval = defaultHealthInterval
	}
	if c.SilenceFactor <= 0 {
		c.SilenceFactor = defaultSilenceFactor
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	return c
}

// SessionOptions shape the setup frame sent on every (re)connect.
type SessionOptions struct {
	SystemInstruction  string
	ResponseModalities []string
	VoiceName          string
	Tools              []ToolDeclaration
	TranscribeInput    bool
	TranscribeOutput   bool
}

// AudioChunk is one decoded PCM fragment from the model.
type AudioChunk struct {
	Data     []byte
	MIMEType string
}

// Transcript is a speech-to-text fragment for either direction.
type Transcript struct {
	Text     string
	Finished bool
}

// Usage reports token consumption for the session so far.
type Usage struct {
	PromptTokens   int
	ResponseTokens int
	TotalTokens    int
}

// Callbacks receive classified inbound traffic and lifecycle changes. Nil
// fields are skipped. Frame-derived callbacks run sequentially on the
// reader goroutine, so a slow handler delays later frames instead of
// reordering them.
type Callbacks struct {
	OnReady              func()
	OnText               func(text string)
	OnAudio              func(chunk AudioChunk)
	OnFileRef            func(uri string)
	OnExecutableCode     func(language, code string)
	OnCodeResult         func(outcome, output string)
	OnContent            func(parts []Part)
	OnToolCall           func(calls []FunctionCall)
	OnToolCancellation   func(ids []string)
	OnInterrupted        func()
	OnTurnComplete       func()
	OnGenerationComplete func()
	OnInputTranscript    func(t Transcript)
	OnOutputTranscript   func(t Transcript)
	OnUsage              func(u Usage)
	OnGoAway             func(timeLeft time.Duration)
	OnStateChange        func(s State)
	OnError              func(err error)
}
