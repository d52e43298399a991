package dto

import (
	"github.com/google/uuid"

	tutorModel "schoolku_backend/internals/features/school/tutors/model"
)

type CreateTutorRequest struct {
	TutorName  string `json:"tutor_name"  validate:"required,max=120"`
	TutorEmail string `json:"tutor_email" validate:"required,email,max=160"`
	TutorPhone string `json:"tutor_phone" validate:"required,max=30"`
}

type UpdateTutorRequest struct {
	TutorName     *string `json:"tutor_name"      validate:"omitempty,max=120"`
	TutorEmail    *string `json:"tutor_email"     validate:"omitempty,email,max=160"`
	TutorPhone    *string `json:"tutor_phone"     validate:"omitempty,max=30"`
	TutorIsActive *bool   `json:"tutor_is_active" validate:"omitempty"`
}

type CreateTutorResponse struct {
	Tutor             tutorModel.TutorModel `json:"tutor"`
	TemporaryPassword string                `json:"temporary_password"`
}

// TutorListItem enriches a tutor row with assignment load for list screens.
type TutorListItem struct {
	tutorModel.TutorModel
	ActiveAssignments int64    `json:"active_assignments"`
	ClassTutorOf      []string `json:"class_tutor_of"` // "Grade 1-A" style labels
}

// TutorAssignmentInfo is one enriched assignment row on the detail screen.
type TutorAssignmentInfo struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	SubjectID    uuid.UUID `json:"section_subject_id"`
	SubjectName  string    `json:"subject_name"`
	SectionID    uuid.UUID `json:"section_id"`
	SectionName  string    `json:"section_name"`
	GradeID      uuid.UUID `json:"grade_id"`
	GradeName    string    `json:"grade_name"`
	IsActive     bool      `json:"is_active"`
}

type TutorDetailResponse struct {
	Tutor        tutorModel.TutorModel `json:"tutor"`
	Assignments  []TutorAssignmentInfo `json:"assignments"`
	ClassTutorOf []string              `json:"class_tutor_of"`
}
