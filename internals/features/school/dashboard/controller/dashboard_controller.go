package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	auditModel "schoolku_backend/internals/features/audit/model"
	academicsModel "schoolku_backend/internals/features/school/academics/model"
	assignmentModel "schoolku_backend/internals/features/school/assignments/model"
	"schoolku_backend/internals/features/school/dashboard/dto"
	tutorModel "schoolku_backend/internals/features/school/tutors/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type DashboardController struct {
	DB *gorm.DB
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db}
}

/* ===============================
   GET /api/v1/schools/:school_id/dashboard
================================ */

func (ctl *DashboardController) Summary(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	db := ctl.DB.WithContext(c.UserContext())

	var resp dto.DashboardResponse

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&resp.ActiveTutors, db.Model(&tutorModel.TutorModel{}).
			Where("tutor_school_id = ? AND tutor_is_active = ?", schoolID, true)},
		{&resp.Grades, db.Model(&academicsModel.GradeModel{}).
			Where("grade_school_id = ?", schoolID)},
		{&resp.Sections, db.Model(&academicsModel.SectionModel{}).
			Where("section_school_id = ?", schoolID)},
		{&resp.ActiveSubjects, db.Model(&academicsModel.SectionSubjectModel{}).
			Where("section_subject_school_id = ? AND section_subject_is_active = ?", schoolID, true)},
		{&resp.ActiveAssignments, db.Model(&assignmentModel.TutorSubjectAssignmentModel{}).
			Where("assignment_school_id = ? AND assignment_is_active = ?", schoolID, true)},
		{&resp.SectionsWithoutTutor, db.Model(&academicsModel.SectionModel{}).
			Where("section_school_id = ? AND section_class_tutor_id IS NULL", schoolID)},
	}
	for _, cq := range counts {
		if err := cq.query.Count(cq.dest).Error; err != nil {
			log.Printf("[ERROR] dashboard count: %v", err)
			return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
		}
	}

	recent := []auditModel.AuditLogModel{}
	if err := db.Where("audit_log_school_id = ?", schoolID).
		Order("audit_log_created_at DESC").
		Limit(10).
		Find(&recent).Error; err != nil {
		log.Printf("[ERROR] dashboard recent activity: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	resp.RecentActivity = recent

	return helper.Success(c, "OK", resp)
}
