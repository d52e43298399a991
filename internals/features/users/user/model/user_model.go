package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserModel is the login identity. school_admin users carry a school scope,
// teacher users are linked 1:1 from a tutor row, superadmin has neither.
type UserModel struct {
	UserID       uuid.UUID  `gorm:"type:uuid;primaryKey;column:user_id"                      json:"user_id"`
	UserName     string     `gorm:"type:varchar(120);not null;column:user_name"              json:"user_name"`
	UserEmail    string     `gorm:"type:varchar(160);not null;uniqueIndex;column:user_email" json:"user_email"`
	UserPassword string     `gorm:"type:varchar(100);not null;column:user_password"          json:"-"`
	UserRole     string     `gorm:"type:varchar(20);not null;column:user_role"               json:"user_role"`
	UserSchoolID *uuid.UUID `gorm:"type:uuid;index;column:user_school_id"                    json:"user_school_id,omitempty"`
	UserIsActive bool       `gorm:"not null;default:true;column:user_is_active"              json:"user_is_active"`

	UserCreatedAt time.Time `gorm:"not null;autoCreateTime;column:user_created_at" json:"user_created_at"`
	UserUpdatedAt time.Time `gorm:"not null;autoUpdateTime;column:user_updated_at" json:"user_updated_at"`
}

func (UserModel) TableName() string { return "users" }

// UUID PK is normally filled by gen_random_uuid() in postgres; the hook keeps
// sqlite-backed tests working.
func (m *UserModel) BeforeCreate(tx *gorm.DB) error {
	if m.UserID == uuid.Nil {
		m.UserID = uuid.New()
	}
	return nil
}
