package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	authModel "schoolku_backend/internals/features/users/auth/model"
	userModel "schoolku_backend/internals/features/users/user/model"
)

const (
	AccessTTL  = 24 * time.Hour
	RefreshTTL = 7 * 24 * time.Hour
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func accessSecret() (string, error) {
	s := strings.TrimSpace(configs.JWTSecret)
	if s == "" {
		return "", fiber.NewError(fiber.StatusInternalServerError, "JWT_SECRET is not set")
	}
	return s, nil
}

func refreshSecret() (string, error) {
	s := strings.TrimSpace(configs.JWTRefreshSecret)
	if s == "" {
		return "", fiber.NewError(fiber.StatusInternalServerError, "JWT_REFRESH_SECRET is not set")
	}
	return s, nil
}

// GenerateTokenPair signs an access + refresh token for the user and stores
// the refresh token's HMAC hash.
func GenerateTokenPair(db *gorm.DB, u *userModel.UserModel) (*TokenPair, error) {
	aSecret, err := accessSecret()
	if err != nil {
		return nil, err
	}
	rSecret, err := refreshSecret()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"user_id": u.UserID.String(),
		"role":    u.UserRole,
		"email":   u.UserEmail,
		"iat":     now.Unix(),
		"exp":     now.Add(AccessTTL).Unix(),
	}
	if u.UserSchoolID != nil {
		claims["school_id"] = u.UserSchoolID.String()
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(aSecret))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to sign access token")
	}

	refreshClaims := jwt.MapClaims{
		"user_id": u.UserID.String(),
		"typ":     "refresh",
		"iat":     now.Unix(),
		"exp":     now.Add(RefreshTTL).Unix(),
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(rSecret))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to sign refresh token")
	}

	row := authModel.RefreshTokenModel{
		RefreshTokenUserID:    u.UserID,
		RefreshTokenHash:      ComputeRefreshHash(refresh, rSecret),
		RefreshTokenExpiresAt: now.Add(RefreshTTL),
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateRefreshToken verifies the JWT, matches the stored hash and returns
// the owning user id. The matched row is revoked so each refresh token is
// single-use.
func ValidateRefreshToken(db *gorm.DB, raw string) (uuid.UUID, error) {
	rSecret, err := refreshSecret()
	if err != nil {
		return uuid.Nil, err
	}

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(rSecret), nil
	})
	if err != nil || !tok.Valid {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid refresh token")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != "refresh" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid refresh token")
	}

	hash := ComputeRefreshHash(raw, rSecret)
	var row authModel.RefreshTokenModel
	if err := db.Where("refresh_token_hash = ? AND refresh_token_revoked = ? AND refresh_token_expires_at > ?",
		hash, false, time.Now().UTC()).First(&row).Error; err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Refresh token unknown or expired")
	}

	if err := db.Model(&authModel.RefreshTokenModel{}).
		Where("refresh_token_id = ?", row.RefreshTokenID).
		Update("refresh_token_revoked", true).Error; err != nil {
		return uuid.Nil, err
	}
	return row.RefreshTokenUserID, nil
}

// RevokeUserRefreshTokens revokes every live refresh token of a user
// (logout, password change).
func RevokeUserRefreshTokens(db *gorm.DB, userID uuid.UUID) error {
	return db.Model(&authModel.RefreshTokenModel{}).
		Where("refresh_token_user_id = ? AND refresh_token_revoked = ?", userID, false).
		Update("refresh_token_revoked", true).Error
}

// BlacklistAccessToken parks a raw access token until its natural expiry.
func BlacklistAccessToken(db *gorm.DB, raw string) error {
	return db.Create(&authModel.TokenBlacklistModel{
		TokenBlacklistToken:     raw,
		TokenBlacklistExpiresAt: time.Now().UTC().Add(AccessTTL),
	}).Error
}

// IsBlacklisted is plugged into the auth middleware.
func IsBlacklisted(db *gorm.DB) func(string) (bool, error) {
	return func(raw string) (bool, error) {
		var n int64
		err := db.Model(&authModel.TokenBlacklistModel{}).
			Where("token_blacklist_token = ? AND token_blacklist_expires_at > ?", raw, time.Now().UTC()).
			Count(&n).Error
		return n > 0, err
	}
}

func ComputeRefreshHash(token, secret string) []byte {
	m := hmac.New(sha256.New, []byte(secret))
	_, _ = m.Write([]byte(token))
	return m.Sum(nil)
}
