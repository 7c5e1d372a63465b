package dto

type LiveSessionResponse struct {
	ID           string `json:"id" example:"sess_abc123"`
	UserID       string `json:"user_id" example:"user_xyz789"`
	Model        string `json:"model" example:"models/gemini-2.0-flash-exp"`
	Voice        string `json:"voice,omitempty" example:"Aoede"`
	ConnectionID string `json:"connection_id" example:"conn_4f9d2c"`
	Status       string `json:"status" example:"active" enums:"active,ended,error"`
	StartedAt    string `json:"started_at" example:"2024-01-15T10:30:00Z"`
	LastActiveAt string `json:"last_active_at" example:"2024-01-15T10:42:11Z"`
	ClientTurns  int64  `json:"client_turns" example:"12"`
	ModelTurns   int64  `json:"model_turns" example:"11"`
	ToolCalls    int64  `json:"tool_calls" example:"2"`
	Reconnects   int64  `json:"reconnects" example:"1"`
}

type LiveSessionListResponse struct {
	Sessions []LiveSessionResponse `json:"sessions"`
}

type LiveStatsResponse struct {
	ActiveSessions  int   `json:"active_sessions" example:"3"`
	EventStreams    int   `json:"event_streams" example:"1"`
	SessionsStarted int64 `json:"sessions_started" example:"120"`
	SessionsEnded   int64 `json:"sessions_ended" example:"117"`
	UpstreamRedials int64 `json:"upstream_redials" example:"4"`
}

type SessionLogResponse struct {
	SessionID string            `json:"session_id" example:"sess_abc123"`
	Entries   []SessionLogEntry `json:"entries"`
}

type SessionLogEntry struct {
	Timestamp string `json:"timestamp" example:"2024-01-15T10:30:05.123Z"`
	Direction string `json:"direction" example:"recv" enums:"send,recv"`
	Category  string `json:"category" example:"serverContent.modelTurn"`
	Summary   string `json:"summary,omitempty" example:"audio/pcm;rate=24000 9600 bytes"`
}
