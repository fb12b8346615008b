package model

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// SessionToken is a refresh token issued by the embedded identity
// provider. Tokens are opaque KSUID strings; redeeming one rotates it.
type SessionToken struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Token     string    `json:"-" gorm:"uniqueIndex;type:varchar(64)"`
	UserID    string    `json:"user_id" gorm:"type:uuid;index"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate fills in the ID and token value when not provided.
func (t *SessionToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = "ses_" + ksuid.New().String()
	}
	if t.Token == "" {
		t.Token = ksuid.New().String()
	}
	return nil
}

// IsExpired checks if the token is expired.
func (t *SessionToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValid checks if the token is valid (not expired and not revoked).
func (t *SessionToken) IsValid() bool {
	return !t.Revoked && !t.IsExpired()
}
