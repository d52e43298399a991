package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TutorModel is a person who can teach. Each tutor owns exactly one
// teacher-role user account, created in the same transaction.
type TutorModel struct {
	TutorID       uuid.UUID `gorm:"type:uuid;primaryKey;column:tutor_id"                    json:"tutor_id"`
	TutorSchoolID uuid.UUID `gorm:"type:uuid;not null;index;column:tutor_school_id"         json:"tutor_school_id"`
	TutorUserID   uuid.UUID `gorm:"type:uuid;not null;index;column:tutor_user_id"           json:"tutor_user_id"`
	TutorName     string    `gorm:"type:varchar(120);not null;column:tutor_name"            json:"tutor_name"`
	TutorEmail    string    `gorm:"type:varchar(160);not null;uniqueIndex;column:tutor_email" json:"tutor_email"`
	TutorPhone    string    `gorm:"type:varchar(30);not null;column:tutor_phone"            json:"tutor_phone"`
	TutorIsActive bool      `gorm:"not null;default:true;column:tutor_is_active"            json:"tutor_is_active"`

	TutorCreatedAt time.Time `gorm:"not null;autoCreateTime;column:tutor_created_at" json:"tutor_created_at"`
	TutorUpdatedAt time.Time `gorm:"not null;autoUpdateTime;column:tutor_updated_at" json:"tutor_updated_at"`
}

func (TutorModel) TableName() string { return "tutors" }

func (m *TutorModel) BeforeCreate(tx *gorm.DB) error {
	if m.TutorID == uuid.Nil {
		m.TutorID = uuid.New()
	}
	return nil
}
