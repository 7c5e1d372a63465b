package transcript

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one finalized speech or text turn of a live session. Partial
// transcription fragments are accumulated by the gateway and stored here
// only once sealed, so rows arrive in turn order per session.
type Turn struct {
	ID        string `gorm:"primaryKey" json:"id"`
	SessionID string `gorm:"not null;index" json:"session_id"`
	UserID    string `gorm:"not null;index" json:"user_id"`

	Role  Role   `gorm:"not null" json:"role"`
	Text  string `json:"text"`
	Final bool   `gorm:"default:false" json:"final"`

	CreatedAt time.Time `json:"created_at"`
}
