package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	authController "schoolku_backend/internals/features/users/auth/controller"
	authService "schoolku_backend/internals/features/users/auth/service"
	"schoolku_backend/internals/middlewares"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
)

// AuthRoutes mounts login/refresh publicly plus the token-bound endpoints
// (me, logout, change-password) behind JWT.
func AuthRoutes(app *fiber.App, db *gorm.DB) {
	ctl := authController.NewAuthController(db)

	pub := app.Group("/api/v1/auth")
	pub.Post("/login", middlewares.LoginRateLimiter(), ctl.Login)
	pub.Post("/google", middlewares.LoginRateLimiter(), ctl.GoogleLogin)
	pub.Post("/refresh", ctl.Refresh)

	priv := app.Group("/api/v1/auth",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              configs.JWTSecret,
			BlacklistChecker:    authService.IsBlacklisted(db),
			AllowCookieFallback: true,
		}),
	)
	priv.Get("/me", ctl.Me)
	priv.Post("/logout", ctl.Logout)
	priv.Post("/change-password", ctl.ChangePassword)
}
