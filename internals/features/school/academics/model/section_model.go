package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SectionModel is a class division within a grade ("A"). At most one class
// tutor per section; the assignment is done with a single conditional UPDATE
// so two concurrent writers cannot both win.
type SectionModel struct {
	SectionID           uuid.UUID  `gorm:"type:uuid;primaryKey;column:section_id"                                        json:"section_id"`
	SectionGradeID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_sections_grade_name;column:section_grade_id" json:"section_grade_id"`
	SectionSchoolID     uuid.UUID  `gorm:"type:uuid;not null;index;column:section_school_id"                             json:"section_school_id"`
	SectionName         string     `gorm:"type:varchar(40);not null;uniqueIndex:uq_sections_grade_name;column:section_name" json:"section_name"`
	SectionClassTutorID *uuid.UUID `gorm:"type:uuid;column:section_class_tutor_id"                                       json:"section_class_tutor_id,omitempty"`

	SectionCreatedAt time.Time `gorm:"not null;autoCreateTime;column:section_created_at" json:"section_created_at"`
	SectionUpdatedAt time.Time `gorm:"not null;autoUpdateTime;column:section_updated_at" json:"section_updated_at"`
}

func (SectionModel) TableName() string { return "sections" }

func (m *SectionModel) BeforeCreate(tx *gorm.DB) error {
	if m.SectionID == uuid.Nil {
		m.SectionID = uuid.New()
	}
	return nil
}
