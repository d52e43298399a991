package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TutorSubjectAssignmentModel links one tutor to one section subject. The is
// active flag gives "soft remove + reactivate" semantics instead of
// delete+recreate.
type TutorSubjectAssignmentModel struct {
	AssignmentID               uuid.UUID `gorm:"type:uuid;primaryKey;column:assignment_id"                                                         json:"assignment_id"`
	AssignmentSchoolID         uuid.UUID `gorm:"type:uuid;not null;index;column:assignment_school_id"                                              json:"assignment_school_id"`
	AssignmentTutorID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_assignments_tutor_subject;column:assignment_tutor_id"            json:"assignment_tutor_id"`
	AssignmentSectionSubjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_assignments_tutor_subject;column:assignment_section_subject_id"  json:"assignment_section_subject_id"`
	AssignmentIsActive         bool      `gorm:"not null;default:true;column:assignment_is_active"                                                 json:"assignment_is_active"`

	AssignmentCreatedAt time.Time `gorm:"not null;autoCreateTime;column:assignment_created_at" json:"assignment_created_at"`
	AssignmentUpdatedAt time.Time `gorm:"not null;autoUpdateTime;column:assignment_updated_at" json:"assignment_updated_at"`
}

func (TutorSubjectAssignmentModel) TableName() string { return "tutor_subject_assignments" }

func (m *TutorSubjectAssignmentModel) BeforeCreate(tx *gorm.DB) error {
	if m.AssignmentID == uuid.Nil {
		m.AssignmentID = uuid.New()
	}
	return nil
}
