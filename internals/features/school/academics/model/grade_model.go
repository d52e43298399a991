package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GradeModel is a year level within a school ("Grade 1"). grade_order drives
// display sorting and defaults to max+1 on create.
type GradeModel struct {
	GradeID       uuid.UUID `gorm:"type:uuid;primaryKey;column:grade_id"                                      json:"grade_id"`
	GradeSchoolID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_grades_school_name;column:grade_school_id" json:"grade_school_id"`
	GradeName     string    `gorm:"type:varchar(120);not null;uniqueIndex:uq_grades_school_name;column:grade_name" json:"grade_name"`
	GradeOrder    int       `gorm:"not null;default:0;column:grade_order"                                     json:"grade_order"`

	GradeCreatedAt time.Time `gorm:"not null;autoCreateTime;column:grade_created_at" json:"grade_created_at"`
	GradeUpdatedAt time.Time `gorm:"not null;autoUpdateTime;column:grade_updated_at" json:"grade_updated_at"`
}

func (GradeModel) TableName() string { return "grades" }

func (m *GradeModel) BeforeCreate(tx *gorm.DB) error {
	if m.GradeID == uuid.Nil {
		m.GradeID = uuid.New()
	}
	return nil
}
