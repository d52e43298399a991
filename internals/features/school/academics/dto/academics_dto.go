package dto

import (
	"github.com/google/uuid"
)

/* =========================================================
   REQUEST DTO
========================================================= */

type SectionInput struct {
	SectionName string   `json:"section_name" validate:"required,max=40"`
	Subjects    []string `json:"subjects"     validate:"omitempty,dive,required,max=120"`
}

type CreateGradeRequest struct {
	GradeName  string         `json:"grade_name"  validate:"required,max=120"`
	GradeOrder *int           `json:"grade_order" validate:"omitempty,min=0"`
	Sections   []SectionInput `json:"sections"    validate:"omitempty,dive"`
}

type UpdateGradeRequest struct {
	GradeName  *string `json:"grade_name"  validate:"omitempty,max=120"`
	GradeOrder *int    `json:"grade_order" validate:"omitempty,min=0"`
}

type AddSectionRequest struct {
	SectionName string   `json:"section_name" validate:"required,max=40"`
	Subjects    []string `json:"subjects"     validate:"omitempty,dive,required,max=120"`
}

// UpdateSectionSubjectsRequest carries the DESIRED subject-name list; the
// controller reconciles the stored set against it.
type UpdateSectionSubjectsRequest struct {
	Subjects []string `json:"subjects" validate:"required,dive,required,max=120"`
}

/* =========================================================
   RESPONSE DTO (nested grade tree)
========================================================= */

type SubjectTutorInfo struct {
	TutorID   uuid.UUID `json:"tutor_id"`
	TutorName string    `json:"tutor_name"`
}

type SubjectTreeNode struct {
	SectionSubjectID uuid.UUID          `json:"section_subject_id"`
	Name             string             `json:"section_subject_name"`
	IsActive         bool               `json:"section_subject_is_active"`
	Tutors           []SubjectTutorInfo `json:"tutors"`
}

type SectionTreeNode struct {
	SectionID  uuid.UUID         `json:"section_id"`
	Name       string            `json:"section_name"`
	ClassTutor *SubjectTutorInfo `json:"class_tutor,omitempty"`
	Subjects   []SubjectTreeNode `json:"subjects"`
}

type GradeTreeNode struct {
	GradeID  uuid.UUID         `json:"grade_id"`
	Name     string            `json:"grade_name"`
	Order    int               `json:"grade_order"`
	Sections []SectionTreeNode `json:"sections"`
}
