package dto

type TranscriptTurnResponse struct {
	ID        string `json:"id" example:"turn_abc123"`
	SessionID string `json:"session_id" example:"sess_abc123"`
	Role      string `json:"role" example:"user" enums:"user,model"`
	Text      string `json:"text" example:"What's the weather in Lagos right now?"`
	Final     bool   `json:"final" example:"true"`
	CreatedAt string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

type TranscriptListResponse struct {
	SessionID string                   `json:"session_id" example:"sess_abc123"`
	Turns     []TranscriptTurnResponse `json:"turns"`
}

type TranscriptSearchRequest struct {
	Query string `json:"query" example:"weather forecast"`
	Limit int    `json:"limit,omitempty" example:"10" minimum:"1" maximum:"100"`
}

type TranscriptSearchResult struct {
	Turn  TranscriptTurnResponse `json:"turn"`
	Score float32                `json:"score" example:"0.87"`
}

type TranscriptSearchResponse struct {
	Query   string                   `json:"query" example:"weather forecast"`
	Results []TranscriptSearchResult `json:"results"`
}
