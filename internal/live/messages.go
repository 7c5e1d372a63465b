package live

import (
	"encoding/json"
	"strings"
)

// Part is one element of a content turn. Exactly one field is set.
type Part struct {
	Text                string               `json:"text,omitempty"`
	InlineData          *Blob                `json:"inlineData,omitempty"`
	FileData            *FileData            `json:"fileData,omitempty"`
	ExecutableCode      *ExecutableCode      `json:"executableCode,omitempty"`
	CodeExecutionResult *CodeExecutionResult `json:"codeExecutionResult,omitempty"`
}

// Blob carries base64-encoded media with its MIME type.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type FileData struct {
	MIMEType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

type ExecutableCode struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type CodeExecutionResult struct {
	Outcome string `json:"outcome"`
	Output  string `json:"output,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Outbound frame envelopes. The service keys each frame by a single
// top-level field.

type setupFrame struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model                    string            `json:"model"`
	GenerationConfig         *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction        *content          `json:"systemInstruction,omitempty"`
	Tools                    []toolSpec        `json:"tools,omitempty"`
	InputAudioTranscription  *struct{}         `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}         `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig *voiceConfig `json:"voiceConfig,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoice `json:"prebuiltVoiceConfig,omitempty"`
}

type prebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type toolSpec struct {
	FunctionDeclarations []ToolDeclaration `json:"functionDeclarations"`
}

type clientContentFrame struct {
	ClientContent clientContent `json:"clientContent"`
}

type clientContent struct {
	Turns        []content `json:"turns"`
	TurnComplete bool      `json:"turnComplete"`
}

type realtimeInputFrame struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks    []Blob `json:"mediaChunks,omitempty"`
	AudioStreamEnd bool   `json:"audioStreamEnd,omitempty"`
}

type toolResponseFrame struct {
	ToolResponse toolResponse `json:"toolResponse"`
}

type toolResponse struct {
	FunctionResponses []ToolResult `json:"functionResponses"`
}

// serverFrame is the inbound envelope. The service sets exactly one of the
// message fields per frame; usageMetadata may ride alongside any of them.
type serverFrame struct {
	SetupComplete        *struct{}         `json:"setupComplete,omitempty"`
	ServerContent        *serverContent    `json:"serverContent,omitempty"`
	ToolCall             *toolCallPayload  `json:"toolCall,omitempty"`
	ToolCallCancellation *toolCancellation `json:"toolCallCancellation,omitempty"`
	UsageMetadata        *usageMetadata    `json:"usageMetadata,omitempty"`
	GoAway               *goAway           `json:"goAway,omitempty"`
}

type serverContent struct {
	ModelTurn           *content       `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	GenerationComplete  bool           `json:"generationComplete,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
}

type transcription struct {
	Text     string `json:"text"`
	Finished bool   `json:"finished,omitempty"`
}

type toolCallPayload struct {
	FunctionCalls []FunctionCall `json:"functionCalls"`
}

type toolCancellation struct {
	IDs []string `json:"ids"`
}

type usageMetadata struct {
	PromptTokenCount   int `json:"promptTokenCount,omitempty"`
	ResponseTokenCount int `json:"responseTokenCount,omitempty"`
	TotalTokenCount    int `json:"totalTokenCount,omitempty"`
}

type goAway struct {
	TimeLeft string `json:"timeLeft,omitempty"`
}

// FunctionCall is a server-issued tool invocation. The response must carry
// the same ID back.
type FunctionCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolResult answers one FunctionCall.
type ToolResult struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// ToolDeclaration describes a callable function advertised at setup.
type ToolDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

func isPCMAudioPart(p Part) bool {
	return p.InlineData != nil && strings.HasPrefix(p.InlineData.MIMEType, "audio/pcm")
}

func isImageChunk(b Blob) bool {
	return strings.HasPrefix(b.MIMEType, "image/")
}

func isAudioChunk(b Blob) bool {
	return strings.HasPrefix(b.MIMEType, "audio/")
}
