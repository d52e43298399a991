package controller

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	auditModel "schoolku_backend/internals/features/audit/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type AuditController struct {
	DB *gorm.DB
}

func NewAuditController(db *gorm.DB) *AuditController {
	return &AuditController{DB: db}
}

/* ===============================
   GET /api/v1/schools/:school_id/audit-logs
================================ */

func (ctl *AuditController) ListBySchool(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	db := ctl.DB.WithContext(c.UserContext())

	q := db.Model(&auditModel.AuditLogModel{}).
		Where("audit_log_school_id = ?", schoolID)
	q = applyAuditFilters(c, q)

	return ctl.page(c, q)
}

/* ===============================
   GET /api/v1/superadmin/audit-logs
   Unscoped: platform-level entries (nil school_id) included; narrow with
   ?school_id= when needed.
================================ */

func (ctl *AuditController) ListAll(c *fiber.Ctx) error {
	db := ctl.DB.WithContext(c.UserContext())

	q := db.Model(&auditModel.AuditLogModel{})
	if v := strings.TrimSpace(c.Query("school_id")); v != "" {
		sid, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid school_id")
		}
		q = q.Where("audit_log_school_id = ?", sid)
	}
	q = applyAuditFilters(c, q)

	return ctl.page(c, q)
}

func applyAuditFilters(c *fiber.Ctx, q *gorm.DB) *gorm.DB {
	if v := strings.TrimSpace(c.Query("action")); v != "" {
		q = q.Where("audit_log_action = ?", v)
	}
	if v := strings.TrimSpace(c.Query("entity")); v != "" {
		q = q.Where("audit_log_entity = ?", v)
	}
	return q
}

func (ctl *AuditController) page(c *fiber.Ctx, q *gorm.DB) error {
	p := helper.ResolvePaging(c, 20, 100)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		log.Printf("[ERROR] count audit logs: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	rows := []auditModel.AuditLogModel{}
	if err := q.Order("audit_log_created_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		log.Printf("[ERROR] list audit logs: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return helper.SuccessWithPagination(c, "OK", rows, helper.BuildPagination(p, total, len(rows)))
}
