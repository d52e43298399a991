package dto

import (
	"github.com/google/uuid"
)

// SmartAssignRequest maps composite "GradeName-SectionLetter" keys to the
// subject names the tutor should teach there.
type SmartAssignRequest struct {
	TutorID     uuid.UUID           `json:"tutor_id"    validate:"required"`
	Assignments map[string][]string `json:"assignments" validate:"omitempty"`

	// Optional class tutor (homeroom) designation.
	ClassGrade   *string `json:"class_grade"   validate:"omitempty,max=120"`
	ClassSection *string `json:"class_section" validate:"omitempty,max=40"`
}

// AssignmentRef identifies one (tutor, subject) link in a batch result.
type AssignmentRef struct {
	AssignmentID     uuid.UUID `json:"assignment_id"`
	SectionSubjectID uuid.UUID `json:"section_subject_id"`
	SubjectName      string    `json:"subject_name"`
	GradeName        string    `json:"grade_name"`
	SectionName      string    `json:"section_name"`
}

type ClassTutorResult struct {
	SectionID   uuid.UUID `json:"section_id"`
	GradeName   string    `json:"grade_name"`
	SectionName string    `json:"section_name"`
}

// SmartAssignResponse is a best-effort batch result, not a single pass/fail.
type SmartAssignResponse struct {
	CreatedAssignments   []AssignmentRef   `json:"created_assignments"`
	SkippedAssignments   []AssignmentRef   `json:"skipped_assignments"`
	ClassTutorAssignment *ClassTutorResult `json:"class_tutor_assignment"`
	Errors               []string          `json:"errors"`
}

// AssignmentListItem is an enriched row for the list endpoint.
type AssignmentListItem struct {
	AssignmentID     uuid.UUID `json:"assignment_id"`
	TutorID          uuid.UUID `json:"tutor_id"`
	TutorName        string    `json:"tutor_name"`
	SectionSubjectID uuid.UUID `json:"section_subject_id"`
	SubjectName      string    `json:"subject_name"`
	SectionID        uuid.UUID `json:"section_id"`
	SectionName      string    `json:"section_name"`
	GradeName        string    `json:"grade_name"`
	IsActive         bool      `json:"is_active"`
}
