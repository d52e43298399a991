package service

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditModel "schoolku_backend/internals/features/audit/model"
)

type Entry struct {
	SchoolID *uuid.UUID
	UserID   uuid.UUID
	Action   string // e.g. "tutor.create"
	Entity   string // e.g. "tutor"
	EntityID string
	Metadata map[string]any
}

// LogAction appends one audit row. Call it on the surrounding transaction so
// the audit record commits (or rolls back) with the change it describes.
func LogAction(tx *gorm.DB, e Entry) error {
	row := auditModel.AuditLogModel{
		AuditLogSchoolID: e.SchoolID,
		AuditLogUserID:   e.UserID,
		AuditLogAction:   e.Action,
		AuditLogEntity:   e.Entity,
		AuditLogEntityID: e.EntityID,
	}
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			log.Printf("[ERROR] audit metadata marshal: %v", err)
		} else {
			row.AuditLogMetadata = datatypes.JSON(b)
		}
	}
	return tx.Create(&row).Error
}
