package details

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	auditController "schoolku_backend/internals/features/audit/controller"
	academicsController "schoolku_backend/internals/features/school/academics/controller"
	assignmentController "schoolku_backend/internals/features/school/assignments/controller"
	dashboardController "schoolku_backend/internals/features/school/dashboard/controller"
	tutorController "schoolku_backend/internals/features/school/tutors/controller"
	featuresMiddleware "schoolku_backend/internals/middlewares/features"
)

// SchoolRoutes mounts everything under /api/v1/schools/:school_id. The group
// already carries AuthJWT + RequireSchoolScope; reads are open to teachers,
// writes require school_admin (or superadmin).
func SchoolRoutes(r fiber.Router, db *gorm.DB) {
	tutorCtl := tutorController.NewTutorController(db)
	gradeCtl := academicsController.NewGradeController(db)
	sectionCtl := academicsController.NewSectionController(db)
	assignCtl := assignmentController.NewAssignmentController(db)
	dashCtl := dashboardController.NewDashboardController(db)
	auditCtl := auditController.NewAuditController(db)

	admin := featuresMiddleware.RequireRoles(constants.RoleSuperadmin, constants.RoleSchoolAdmin)
	anyStaff := featuresMiddleware.RequireRoles(constants.RoleSuperadmin, constants.RoleSchoolAdmin, constants.RoleTeacher)

	// Dashboard
	r.Get("/dashboard", anyStaff, dashCtl.Summary)

	// Tutors
	r.Post("/tutors", admin, tutorCtl.Create)
	r.Get("/tutors", anyStaff, tutorCtl.List)
	r.Get("/tutors/:id", anyStaff, tutorCtl.GetByID)
	r.Put("/tutors/:id", admin, tutorCtl.Update)
	r.Delete("/tutors/:id", admin, tutorCtl.Delete)
	r.Post("/tutors/:id/reset-password", admin, tutorCtl.ResetPassword)
	r.Delete("/tutors/:tutor_id/assignments", admin, assignCtl.DeleteAllForTutor)

	// Grades / sections / subjects
	r.Post("/grades", admin, gradeCtl.Create)
	r.Get("/grades", anyStaff, gradeCtl.ListTree)
	r.Put("/grades/:id", admin, gradeCtl.Update)
	r.Delete("/grades/:id", admin, gradeCtl.Delete)
	r.Post("/grades/:id/sections", admin, sectionCtl.AddSection)
	r.Put("/sections/:id/subjects", admin, sectionCtl.UpdateSubjects)
	r.Delete("/sections/:id", admin, sectionCtl.DeleteSection)
	r.Delete("/sections/:id/subjects/:subject_id", admin, sectionCtl.DeleteSubject)

	// Assignments
	r.Post("/assignments", admin, assignCtl.SmartAssign)
	r.Get("/assignments", anyStaff, assignCtl.List)
	r.Put("/assignments/:tutor_id", admin, assignCtl.UpdateTutorAssignments)
	r.Delete("/assignments/:id", admin, assignCtl.Remove)

	// Audit trail
	r.Get("/audit-logs", admin, auditCtl.ListBySchool)
}
