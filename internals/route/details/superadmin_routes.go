package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	auditController "schoolku_backend/internals/features/audit/controller"
	schoolController "schoolku_backend/internals/features/school/schools/controller"
)

// SuperadminRoutes mounts platform-level provisioning. The group already
// carries AuthJWT + RequireRoles(superadmin).
func SuperadminRoutes(r fiber.Router, db *gorm.DB) {
	schoolCtl := schoolController.NewSchoolController(db)
	auditCtl := auditController.NewAuditController(db)

	r.Post("/schools", schoolCtl.Create)
	r.Get("/schools", schoolCtl.List)
	r.Get("/schools/:id", schoolCtl.GetByID)
	r.Put("/schools/:id", schoolCtl.Update)
	r.Delete("/schools/:id", schoolCtl.Delete)
	r.Post("/schools/:id/reset-admin-password", schoolCtl.ResetAdminPassword)

	r.Get("/audit-logs", auditCtl.ListAll)
}
