package dto

import (
	"github.com/google/uuid"

	userModel "schoolku_backend/internals/features/users/user/model"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type UserResponse struct {
	UserID   uuid.UUID  `json:"user_id"`
	Name     string     `json:"user_name"`
	Email    string     `json:"user_email"`
	Role     string     `json:"user_role"`
	SchoolID *uuid.UUID `json:"user_school_id,omitempty"`
}

type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

func ToUserResponse(u *userModel.UserModel) UserResponse {
	return UserResponse{
		UserID:   u.UserID,
		Name:     u.UserName,
		Email:    u.UserEmail,
		Role:     u.UserRole,
		SchoolID: u.UserSchoolID,
	}
}
