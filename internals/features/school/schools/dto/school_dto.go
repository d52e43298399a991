package dto

import (
	"github.com/google/uuid"

	schoolModel "schoolku_backend/internals/features/school/schools/model"
)

type CreateSchoolRequest struct {
	SchoolCode    string  `json:"school_code"    validate:"required,max=40"`
	SchoolName    string  `json:"school_name"    validate:"required,max=160"`
	SchoolAddress *string `json:"school_address" validate:"omitempty"`
	SchoolPhone   *string `json:"school_phone"   validate:"omitempty,max=30"`

	AdminName  string `json:"admin_name"  validate:"required,max=120"`
	AdminEmail string `json:"admin_email" validate:"required,email,max=160"`
}

type UpdateSchoolRequest struct {
	SchoolCode     *string `json:"school_code"      validate:"omitempty,max=40"`
	SchoolName     *string `json:"school_name"      validate:"omitempty,max=160"`
	SchoolAddress  *string `json:"school_address"   validate:"omitempty"`
	SchoolPhone    *string `json:"school_phone"     validate:"omitempty,max=30"`
	SchoolIsActive *bool   `json:"school_is_active" validate:"omitempty"`

	AdminName  *string `json:"admin_name"  validate:"omitempty,max=120"`
	AdminEmail *string `json:"admin_email" validate:"omitempty,email,max=160"`
}

func (r *UpdateSchoolRequest) HasAdminFields() bool {
	return r.AdminName != nil || r.AdminEmail != nil
}

type SchoolAdminInfo struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"user_name"`
	Email  string    `json:"user_email"`
}

type SchoolDetailResponse struct {
	School schoolModel.SchoolModel `json:"school"`
	Admin  *SchoolAdminInfo        `json:"admin,omitempty"`
	Counts SchoolCounts            `json:"counts"`
}

type SchoolCounts struct {
	Tutors   int64 `json:"tutors"`
	Grades   int64 `json:"grades"`
	Sections int64 `json:"sections"`
}

type CreateSchoolResponse struct {
	School            schoolModel.SchoolModel `json:"school"`
	Admin             SchoolAdminInfo         `json:"admin"`
	TemporaryPassword string                  `json:"temporary_password"`
}
