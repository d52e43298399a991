package controller

import (
	"errors"
	"log"
	"strings"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	schoolModel "schoolku_backend/internals/features/school/schools/model"
	"schoolku_backend/internals/features/users/auth/dto"
	"schoolku_backend/internals/features/users/auth/service"
	userModel "schoolku_backend/internals/features/users/user/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type AuthController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db, Validate: validator.New()}
}

/* ===============================
   POST /api/v1/auth/login
================================ */

func (ctl *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	var user userModel.UserModel
	err := ctl.DB.WithContext(c.UserContext()).
		Where("user_email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		log.Printf("[ERROR] login lookup: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if !helper.CheckPassword(user.UserPassword, req.Password) {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	return ctl.issue(c, &user)
}

/* ===============================
   POST /api/v1/auth/google
   Sign-in for existing accounts via Google ID token. No self-provisioning.
================================ */

func (ctl *AuthController) GoogleLogin(c *fiber.Ctx) error {
	var req dto.GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	clientID := strings.TrimSpace(configs.GoogleClientID)
	if clientID == "" {
		return helper.JsonError(c, fiber.StatusNotImplemented, "Google sign-in is not configured")
	}

	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(req.IDToken, []string{clientID}); err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid Google ID token")
	}
	claims, err := googleAuthIDTokenVerifier.Decode(req.IDToken)
	if err != nil || strings.TrimSpace(claims.Email) == "" {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Invalid Google ID token")
	}

	var user userModel.UserModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("user_email = ?", strings.ToLower(claims.Email)).
		First(&user).Error; err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "No account for this Google identity")
	}

	return ctl.issue(c, &user)
}

func (ctl *AuthController) issue(c *fiber.Ctx, user *userModel.UserModel) error {
	if !user.UserIsActive {
		return helper.JsonError(c, fiber.StatusUnauthorized, "Account is deactivated")
	}

	// School-scoped roles cannot log into a deactivated school.
	if user.UserSchoolID != nil {
		var school schoolModel.SchoolModel
		if err := ctl.DB.WithContext(c.UserContext()).
			Where("school_id = ?", *user.UserSchoolID).
			First(&school).Error; err != nil || !school.SchoolIsActive {
			return helper.JsonError(c, fiber.StatusUnauthorized, "School is deactivated")
		}
	}

	pair, err := service.GenerateTokenPair(ctl.DB.WithContext(c.UserContext()), user)
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return helper.JsonError(c, fe.Code, fe.Message)
		}
		log.Printf("[ERROR] token pair: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return helper.Success(c, "Login successful", dto.LoginResponse{
		User:         dto.ToUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

/* ===============================
   POST /api/v1/auth/refresh
================================ */

func (ctl *AuthController) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	userID, err := service.ValidateRefreshToken(db, req.RefreshToken)
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return helper.JsonError(c, fe.Code, fe.Message)
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	var user userModel.UserModel
	if err := db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "User not found")
	}

	return ctl.issue(c, &user)
}

/* ===============================
   POST /api/v1/auth/logout  (authenticated)
================================ */

func (ctl *AuthController) Logout(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	db := ctl.DB.WithContext(c.UserContext())

	if raw := helperAuth.GetRawToken(c); raw != "" {
		if err := service.BlacklistAccessToken(db, raw); err != nil {
			log.Printf("[ERROR] blacklist: %v", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
		}
	}
	if err := service.RevokeUserRefreshTokens(db, userID); err != nil {
		log.Printf("[ERROR] revoke refresh: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return helper.Success(c, "Logged out", nil)
}

/* ===============================
   GET /api/v1/auth/me  (authenticated)
================================ */

func (ctl *AuthController) Me(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}

	var user userModel.UserModel
	if err := ctl.DB.WithContext(c.UserContext()).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "User not found")
	}

	return helper.Success(c, "OK", fiber.Map{
		"user_id":   user.UserID,
		"role":      user.UserRole,
		"email":     user.UserEmail,
		"school_id": user.UserSchoolID,
	})
}

/* ===============================
   POST /api/v1/auth/change-password  (authenticated)
================================ */

func (ctl *AuthController) ChangePassword(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var user userModel.UserModel
	if err := db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, "User not found")
	}
	if !helper.CheckPassword(user.UserPassword, req.OldPassword) {
		return helper.JsonError(c, fiber.StatusBadRequest, "Old password is incorrect")
	}

	hash, err := helper.HashPassword(req.NewPassword)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to hash password")
	}
	if err := db.Model(&userModel.UserModel{}).
		Where("user_id = ?", user.UserID).
		Update("user_password", hash).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update password")
	}

	// Old sessions die with the password.
	if err := service.RevokeUserRefreshTokens(db, user.UserID); err != nil {
		log.Printf("[ERROR] revoke refresh: %v", err)
	}
	return helper.Success(c, "Password changed", nil)
}
