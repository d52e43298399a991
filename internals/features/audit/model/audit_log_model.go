package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLogModel is an append-only fact record: actor + action + entity +
// metadata. Never mutated or deleted by domain logic.
type AuditLogModel struct {
	AuditLogID       uuid.UUID      `gorm:"type:uuid;primaryKey;column:audit_log_id"           json:"audit_log_id"`
	AuditLogSchoolID *uuid.UUID     `gorm:"type:uuid;index;column:audit_log_school_id"         json:"audit_log_school_id,omitempty"`
	AuditLogUserID   uuid.UUID      `gorm:"type:uuid;not null;index;column:audit_log_user_id"  json:"audit_log_user_id"`
	AuditLogAction   string         `gorm:"type:varchar(60);not null;column:audit_log_action"  json:"audit_log_action"`
	AuditLogEntity   string         `gorm:"type:varchar(60);not null;column:audit_log_entity"  json:"audit_log_entity"`
	AuditLogEntityID string         `gorm:"type:varchar(60);not null;column:audit_log_entity_id" json:"audit_log_entity_id"`
	AuditLogMetadata datatypes.JSON `gorm:"column:audit_log_metadata"                          json:"audit_log_metadata,omitempty"`

	AuditLogCreatedAt time.Time `gorm:"not null;autoCreateTime;column:audit_log_created_at" json:"audit_log_created_at"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

func (m *AuditLogModel) BeforeCreate(tx *gorm.DB) error {
	if m.AuditLogID == uuid.Nil {
		m.AuditLogID = uuid.New()
	}
	return nil
}
