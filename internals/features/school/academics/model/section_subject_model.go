package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SectionSubjectModel is a subject instance scoped to one section (not shared
// across sections). Reconciliation deactivates rather than deletes so
// assignment history survives; hard delete happens only through the explicit
// delete endpoint.
type SectionSubjectModel struct {
	SectionSubjectID        uuid.UUID `gorm:"type:uuid;primaryKey;column:section_subject_id"                                                       json:"section_subject_id"`
	SectionSubjectSectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_section_subjects_section_name;column:section_subject_section_id"    json:"section_subject_section_id"`
	SectionSubjectSchoolID  uuid.UUID `gorm:"type:uuid;not null;index;column:section_subject_school_id"                                            json:"section_subject_school_id"`
	SectionSubjectName      string    `gorm:"type:varchar(120);not null;uniqueIndex:uq_section_subjects_section_name;column:section_subject_name"  json:"section_subject_name"`
	SectionSubjectIsActive  bool      `gorm:"not null;default:true;column:section_subject_is_active"                                               json:"section_subject_is_active"`

	SectionSubjectCreatedAt time.Time `gorm:"not null;autoCreateTime;column:section_subject_created_at" json:"section_subject_created_at"`
	SectionSubjectUpdatedAt time.Time `gorm:"not null;autoUpdateTime;column:section_subject_updated_at" json:"section_subject_updated_at"`
}

func (SectionSubjectModel) TableName() string { return "section_subjects" }

func (m *SectionSubjectModel) BeforeCreate(tx *gorm.DB) error {
	if m.SectionSubjectID == uuid.Nil {
		m.SectionSubjectID = uuid.New()
	}
	return nil
}
