package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenBlacklistModel holds access tokens revoked by logout until they
// expire on their own.
type TokenBlacklistModel struct {
	TokenBlacklistID        uuid.UUID `gorm:"type:uuid;primaryKey;column:token_blacklist_id"    json:"token_blacklist_id"`
	TokenBlacklistToken     string    `gorm:"type:text;not null;index;column:token_blacklist_token" json:"-"`
	TokenBlacklistExpiresAt time.Time `gorm:"not null;column:token_blacklist_expires_at"        json:"token_blacklist_expires_at"`

	TokenBlacklistCreatedAt time.Time `gorm:"not null;autoCreateTime;column:token_blacklist_created_at" json:"token_blacklist_created_at"`
}

func (TokenBlacklistModel) TableName() string { return "token_blacklists" }

func (m *TokenBlacklistModel) BeforeCreate(tx *gorm.DB) error {
	if m.TokenBlacklistID == uuid.Nil {
		m.TokenBlacklistID = uuid.New()
	}
	return nil
}
