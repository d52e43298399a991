package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/constants"
	authService "schoolku_backend/internals/features/users/auth/service"
	authMiddleware "schoolku_backend/internals/middlewares/auth"
	featuresMiddleware "schoolku_backend/internals/middlewares/features"
	routeDetails "schoolku_backend/internals/route/details"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// ===================== PUBLIC: AUTH =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	routeDetails.AuthRoutes(app, db)

	authJWT := authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		BlacklistChecker:    authService.IsBlacklisted(db),
		AllowCookieFallback: true,
	})

	// ===================== SUPERADMIN =====================
	log.Println("[INFO] Setting up SUPERADMIN group...")
	superadmin := app.Group("/api/v1/superadmin",
		authJWT,
		featuresMiddleware.RequireRoles(constants.RoleSuperadmin),
	)
	routeDetails.SuperadminRoutes(superadmin, db)

	// ===================== SCHOOL-SCOPED =====================
	log.Println("[INFO] Setting up SCHOOL group (Auth + Scope)...")
	school := app.Group("/api/v1/schools/:school_id",
		authJWT,
		featuresMiddleware.RequireSchoolScope(),
	)
	routeDetails.SchoolRoutes(school, db)
}
