package apikey

import (
	"time"

	"github.com/eleven-am/live-gateway/internal/shared"
)

type OwnerType string

const (
	OwnerTypeUser   OwnerType = "user"
	OwnerTypeDevice OwnerType = "device"
)

type APIKey struct {
	ID         string             `gorm:"primaryKey" json:"id"`
	OwnerID    string             `gorm:"not null;index" json:"owner_id"`
	OwnerType  OwnerType          `gorm:"not null;index" json:"owner_type"`
	Name       string             `gorm:"not null" json:"name"`
	Prefix     string             `gorm:"uniqueIndex;not null" json:"-"`
	SecretHash string             `gorm:"not null" json:"-"`
	Scopes     shared.StringSlice `gorm:"type:text" json:"scopes"`
	LastUsedAt *time.Time         `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time         `json:"expires_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}

// HasScope reports whether the key grants a scope. Keys minted without
// explicit scopes grant everything.
func (k *APIKey) HasScope(scope shared.Scope) bool {
	if len(k.Scopes) == 0 {
		return true
	}
	for _, s := range k.Scopes {
		if s == scope.String() {
			return true
		}
	}
	return false
}

// GrantableScopes lists the scopes an API key may carry. Profile and
// email stay cookie-session only.
func GrantableScopes() []shared.Scope {
	return []shared.Scope{shared.ScopeLive, shared.ScopeTranscripts, shared.ScopeAudio}
}

func ValidScope(s string) bool {
	for _, scope := range GrantableScopes() {
		if s == scope.String() {
			return true
		}
	}
	return false
}
