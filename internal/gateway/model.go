package gateway

import (
	"time"

	"github.com/eleven-am/live-gateway/internal/live"
)

// MessageType tags one frame of the device protocol.
type MessageType string

// Frames a device may send. Everything except setup can repeat; setup is
// honored only before the first upstream dial.
const (
	MessageTypeSetup      MessageType = "setup"
	MessageTypeText       MessageType = "text"
	MessageTypeAudio      MessageType = "audio"
	MessageTypeAudioEnd   MessageType = "audio_end"
	MessageTypeImage      MessageType = "image"
	MessageTypeToolResult MessageType = "tool_result"
	MessageTypeEnd        MessageType = "end"
)

// Frames the gateway sends to devices and to event stream observers.
const (
	MessageTypeReady              MessageType = "ready"
	MessageTypeContent            MessageType = "content"
	MessageTypeToolCall           MessageType = "tool_call"
	MessageTypeToolCancel         MessageType = "tool_cancel"
	MessageTypeInterrupted        MessageType = "interrupted"
	MessageTypeTurnComplete       MessageType = "turn_complete"
	MessageTypeGenerationComplete MessageType = "generation_complete"
	MessageTypeInputTranscript    MessageType = "input_transcript"
	MessageTypeOutputTranscript   MessageType = "output_transcript"
	MessageTypeUsage              MessageType = "usage"
	MessageTypeGoAway             MessageType = "go_away"
	MessageTypeState              MessageType = "state"
	MessageTypeError              MessageType = "error"
	MessageTypeEnded              MessageType = "ended"
)

// Message is the single envelope both directions of the device socket
// share. Only the fields that belong to the frame's type are populated;
// everything else stays empty and is dropped from the JSON.
type Message struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Timestamp time.Time   `json:"timestamp,omitzero"`

	// Text frames and transcripts.
	Text  string `json:"text,omitempty"`
	Final bool   `json:"final,omitempty"`

	// Media frames. Data is base64 PCM or image bytes.
	Data     string `json:"data,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`

	// Structured model output and tool traffic.
	Parts   []live.Part         `json:"parts,omitempty"`
	Calls   []live.FunctionCall `json:"calls,omitempty"`
	Results []live.ToolResult   `json:"results,omitempty"`
	IDs     []string            `json:"ids,omitempty"`

	// Setup frame fields.
	SystemInstruction string                 `json:"system_instruction,omitempty"`
	Modalities        []string               `json:"modalities,omitempty"`
	Voice             string                 `json:"voice,omitempty"`
	Tools             []live.ToolDeclaration `json:"tools,omitempty"`

	Usage *UsageInfo `json:"usage,omitempty"`
	Error *ErrorInfo `json:"error,omitempty"`

	// State and go_away frames.
	State      string `json:"state,omitempty"`
	TimeLeftMs int64  `json:"time_left_ms,omitempty"`
}

// UsageInfo mirrors the upstream token accounting on usage frames.
type UsageInfo struct {
	PromptTokens   int `json:"prompt_tokens"`
	ResponseTokens int `json:"response_tokens"`
	TotalTokens    int `json:"total_tokens"`
}

// ErrorInfo rides on error frames so devices can branch on a stable code
// instead of parsing message text.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats is a point-in-time snapshot of the node's gateway activity.
type Stats struct {
	ActiveSessions  int
	EventStreams    int
	SessionsStarted int64
	SessionsEnded   int64
	UpstreamRedials int64
}
