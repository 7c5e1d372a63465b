package dto

type MetricsResponse struct {
	Model          string `json:"model" example:"models/gemini-2.0-flash-exp"`
	Date           string `json:"date" example:"2024-01-15"`
	Hour           int    `json:"hour" example:"14"`
	Sessions       int64  `json:"sessions" example:"100"`
	ClientTurns    int64  `json:"client_turns" example:"500"`
	ModelTurns     int64  `json:"model_turns" example:"450"`
	ToolCalls      int64  `json:"tool_calls" example:"40"`
	Interruptions  int64  `json:"interruptions" example:"12"`
	PromptTokens   int64  `json:"prompt_tokens" example:"90000"`
	ResponseTokens int64  `json:"response_tokens" example:"120000"`
	UniqueUsers    int64  `json:"unique_users" example:"25"`
	AvgLatencyMs   int64  `json:"avg_latency_ms" example:"150"`
	ErrorCount     int64  `json:"error_count" example:"5"`
}

type MetricsListResponse struct {
	Model   string            `json:"model" example:"models/gemini-2.0-flash-exp"`
	Hours   int               `json:"hours" example:"24"`
	Metrics []MetricsResponse `json:"metrics"`
}

type SummaryResponse struct {
	Model               string  `json:"model" example:"models/gemini-2.0-flash-exp"`
	Period              string  `json:"period" example:"7d"`
	TotalSessions       int64   `json:"total_sessions" example:"1000"`
	TotalClientTurns    int64   `json:"total_client_turns" example:"5000"`
	TotalModelTurns     int64   `json:"total_model_turns" example:"4500"`
	TotalToolCalls      int64   `json:"total_tool_calls" example:"400"`
	TotalInterruptions  int64   `json:"total_interruptions" example:"120"`
	TotalPromptTokens   int64   `json:"total_prompt_tokens" example:"900000"`
	TotalResponseTokens int64   `json:"total_response_tokens" example:"1200000"`
	UniqueUsers         int64   `json:"unique_users" example:"200"`
	AvgLatencyMs        int64   `json:"avg_latency_ms" example:"145"`
	ErrorRate           float64 `json:"error_rate" example:"1.5"`
}
