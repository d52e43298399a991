package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SchoolModel is the tenant root. Deleting a school cascades (explicitly, in
// the controller transaction) to users, tutors, grades, sections, subjects
// and assignments.
type SchoolModel struct {
	SchoolID       uuid.UUID `gorm:"type:uuid;primaryKey;column:school_id"                    json:"school_id"`
	SchoolCode     string    `gorm:"type:varchar(40);not null;uniqueIndex;column:school_code" json:"school_code"`
	SchoolName     string    `gorm:"type:varchar(160);not null;column:school_name"            json:"school_name"`
	SchoolAddress  *string   `gorm:"type:text;column:school_address"                          json:"school_address,omitempty"`
	SchoolPhone    *string   `gorm:"type:varchar(30);column:school_phone"                     json:"school_phone,omitempty"`
	SchoolIsActive bool      `gorm:"not null;default:true;column:school_is_active"            json:"school_is_active"`

	SchoolCreatedAt time.Time `gorm:"not null;autoCreateTime;column:school_created_at" json:"school_created_at"`
	SchoolUpdatedAt time.Time `gorm:"not null;autoUpdateTime;column:school_updated_at" json:"school_updated_at"`
}

func (SchoolModel) TableName() string { return "schools" }

func (m *SchoolModel) BeforeCreate(tx *gorm.DB) error {
	if m.SchoolID == uuid.Nil {
		m.SchoolID = uuid.New()
	}
	return nil
}
