package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshTokenModel stores the HMAC-SHA256 hash of issued refresh tokens.
// Raw tokens never touch the database.
type RefreshTokenModel struct {
	RefreshTokenID        uuid.UUID `gorm:"type:uuid;primaryKey;column:refresh_token_id"              json:"refresh_token_id"`
	RefreshTokenUserID    uuid.UUID `gorm:"type:uuid;not null;index;column:refresh_token_user_id"     json:"refresh_token_user_id"`
	RefreshTokenHash      []byte    `gorm:"type:bytea;not null;index;column:refresh_token_hash"       json:"-"`
	RefreshTokenExpiresAt time.Time `gorm:"not null;column:refresh_token_expires_at"                  json:"refresh_token_expires_at"`
	RefreshTokenRevoked   bool      `gorm:"not null;default:false;column:refresh_token_revoked"       json:"refresh_token_revoked"`

	RefreshTokenCreatedAt time.Time `gorm:"not null;autoCreateTime;column:refresh_token_created_at" json:"refresh_token_created_at"`
}

func (RefreshTokenModel) TableName() string { return "refresh_tokens" }

func (m *RefreshTokenModel) BeforeCreate(tx *gorm.DB) error {
	if m.RefreshTokenID == uuid.Nil {
		m.RefreshTokenID = uuid.New()
	}
	return nil
}
