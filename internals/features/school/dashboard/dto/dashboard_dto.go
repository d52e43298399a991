package dto

import (
	auditModel "schoolku_backend/internals/features/audit/model"
)

// DashboardResponse is a single aggregated snapshot for a school's landing
// page: headline counts plus the latest audit entries.
type DashboardResponse struct {
	ActiveTutors         int64 `json:"active_tutors"`
	Grades               int64 `json:"grades"`
	Sections             int64 `json:"sections"`
	ActiveSubjects       int64 `json:"active_subjects"`
	ActiveAssignments    int64 `json:"active_assignments"`
	SectionsWithoutTutor int64 `json:"sections_without_class_tutor"`

	RecentActivity []auditModel.AuditLogModel `json:"recent_activity"`
}
