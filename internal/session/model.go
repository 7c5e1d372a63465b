package session

import (
	"strconv"
	"time"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
	StatusError  Status = "error"
)

// Session is the persisted record of one gateway conversation. Counters
// are cumulative over the session's lifetime, across upstream redials.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Model        string    `json:"model"`
	Voice        string    `json:"voice,omitempty"`
	ConnectionID string    `json:"connection_id"`
	Status       Status    `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	ClientTurns  int64     `json:"client_turns"`
	ModelTurns   int64     `json:"model_turns"`
	ToolCalls    int64     `json:"tool_calls"`
	Reconnects   int64     `json:"reconnects"`
}

func (s *Session) RedisKey() string {
	return "session:" + s.ID
}

type Metrics struct {
	Model          string `json:"model"`
	Date           string `json:"date"`
	Hour           int    `json:"hour"`
	Sessions       int64  `json:"sessions"`
	ClientTurns    int64  `json:"client_turns"`
	ModelTurns     int64  `json:"model_turns"`
	ToolCalls      int64  `json:"tool_calls"`
	Interruptions  int64  `json:"interruptions"`
	PromptTokens   int64  `json:"prompt_tokens"`
	ResponseTokens int64  `json:"response_tokens"`
	UniqueUsers    int64  `json:"unique_users"`
	AvgLatencyMs   int64  `json:"avg_latency_ms"`
	ErrorCount     int64  `json:"error_count"`
}

func MetricsRedisKey(model, date string, hour int) string {
	return "model:" + model + ":metrics:" + date + ":" + strconv.Itoa(hour)
}
