package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	auditService "schoolku_backend/internals/features/audit/service"
	"schoolku_backend/internals/features/school/academics/dto"
	academicsModel "schoolku_backend/internals/features/school/academics/model"
	assignmentModel "schoolku_backend/internals/features/school/assignments/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type SectionController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewSectionController(db *gorm.DB) *SectionController {
	return &SectionController{DB: db, Validate: validator.New()}
}

/* ===============================
   POST /api/v1/schools/:school_id/grades/:id/sections
================================ */

func (ctl *SectionController) AddSection(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	gradeID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid grade id")
	}

	var req dto.AddSectionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var grade academicsModel.GradeModel
	if err := db.Where("grade_id = ? AND grade_school_id = ?", gradeID, schoolID).First(&grade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Grade not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	name := strings.TrimSpace(req.SectionName)
	var n int64
	if err := db.Model(&academicsModel.SectionModel{}).
		Where("section_grade_id = ? AND section_name = ?", gradeID, name).
		Count(&n).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	if n > 0 {
		return helper.JsonError(c, fiber.StatusConflict, "Section name already exists in this grade")
	}

	section := academicsModel.SectionModel{
		SectionGradeID:  gradeID,
		SectionSchoolID: schoolID,
		SectionName:     name,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&section).Error; err != nil {
			return err
		}
		for _, subjName := range dedupeNames(req.Subjects) {
			subject := academicsModel.SectionSubjectModel{
				SectionSubjectSectionID: section.SectionID,
				SectionSubjectSchoolID:  schoolID,
				SectionSubjectName:      subjName,
				SectionSubjectIsActive:  true,
			}
			if err := tx.Create(&subject).Error; err != nil {
				return err
			}
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "section.create",
			Entity:   "section",
			EntityID: section.SectionID.String(),
			Metadata: map[string]any{"grade_name": grade.GradeName, "section_name": section.SectionName},
		})
	})
	if err != nil {
		log.Printf("[ERROR] add section tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to create section")
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Section created", section)
}

/* ===============================
   PUT /api/v1/schools/:school_id/sections/:id/subjects
   Set-reconciliation against the desired subject-name list:
   - missing from desired  → deactivate (assignments deactivate too)
   - desired but absent    → create
   - desired but inactive  → reactivate, id preserved
   Matched by (section_id, name). Never duplicated.
================================ */

func (ctl *SectionController) UpdateSubjects(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	sectionID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid section id")
	}

	var req dto.UpdateSectionSubjectsRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var section academicsModel.SectionModel
	if err := db.Where("section_id = ? AND section_school_id = ?", sectionID, schoolID).First(&section).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Section not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	desired := dedupeNames(req.Subjects)
	desiredSet := make(map[string]struct{}, len(desired))
	for _, name := range desired {
		desiredSet[name] = struct{}{}
	}

	var result []academicsModel.SectionSubjectModel
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing []academicsModel.SectionSubjectModel
		if err := tx.Where("section_subject_section_id = ?", sectionID).Find(&existing).Error; err != nil {
			return err
		}
		byName := make(map[string]*academicsModel.SectionSubjectModel, len(existing))
		for i := range existing {
			byName[existing[i].SectionSubjectName] = &existing[i]
		}

		deactivated, created, reactivated := 0, 0, 0

		// Deactivate what fell out of the desired list.
		for i := range existing {
			subj := &existing[i]
			if _, keep := desiredSet[subj.SectionSubjectName]; keep || !subj.SectionSubjectIsActive {
				continue
			}
			if err := tx.Model(&academicsModel.SectionSubjectModel{}).
				Where("section_subject_id = ?", subj.SectionSubjectID).
				Update("section_subject_is_active", false).Error; err != nil {
				return err
			}
			subj.SectionSubjectIsActive = false
			if err := tx.Model(&assignmentModel.TutorSubjectAssignmentModel{}).
				Where("assignment_section_subject_id = ? AND assignment_is_active = ?", subj.SectionSubjectID, true).
				Update("assignment_is_active", false).Error; err != nil {
				return err
			}
			deactivated++
		}

		// Create or reactivate the desired ones.
		for _, name := range desired {
			subj, ok := byName[name]
			if !ok {
				row := academicsModel.SectionSubjectModel{
					SectionSubjectSectionID: sectionID,
					SectionSubjectSchoolID:  schoolID,
					SectionSubjectName:      name,
					SectionSubjectIsActive:  true,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				result = append(result, row)
				created++
				continue
			}
			if !subj.SectionSubjectIsActive {
				if err := tx.Model(&academicsModel.SectionSubjectModel{}).
					Where("section_subject_id = ?", subj.SectionSubjectID).
					Update("section_subject_is_active", true).Error; err != nil {
					return err
				}
				subj.SectionSubjectIsActive = true
				reactivated++
			}
			result = append(result, *subj)
		}

		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "section.update_subjects",
			Entity:   "section",
			EntityID: sectionID.String(),
			Metadata: map[string]any{
				"created": created, "reactivated": reactivated, "deactivated": deactivated,
			},
		})
	})
	if err != nil {
		log.Printf("[ERROR] update section subjects tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update subjects")
	}

	if result == nil {
		result = []academicsModel.SectionSubjectModel{}
	}
	return helper.Success(c, "Subjects updated", result)
}

/* ===============================
   DELETE /api/v1/schools/:school_id/sections/:id
================================ */

func (ctl *SectionController) DeleteSection(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	sectionID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid section id")
	}

	db := ctl.DB.WithContext(c.UserContext())
	var section academicsModel.SectionModel
	if err := db.Where("section_id = ? AND section_school_id = ?", sectionID, schoolID).First(&section).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Section not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var subjectIDs []uuid.UUID
		if err := tx.Model(&academicsModel.SectionSubjectModel{}).
			Where("section_subject_section_id = ?", sectionID).
			Pluck("section_subject_id", &subjectIDs).Error; err != nil {
			return err
		}
		if len(subjectIDs) > 0 {
			if err := tx.Where("assignment_section_subject_id IN ?", subjectIDs).
				Delete(&assignmentModel.TutorSubjectAssignmentModel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("section_subject_id IN ?", subjectIDs).
				Delete(&academicsModel.SectionSubjectModel{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("section_id = ?", sectionID).Delete(&academicsModel.SectionModel{}).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "section.delete",
			Entity:   "section",
			EntityID: sectionID.String(),
			Metadata: map[string]any{"section_name": section.SectionName},
		})
	})
	if err != nil {
		log.Printf("[ERROR] delete section tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete section")
	}

	return helper.Success(c, "Section deleted", nil)
}

/* ===============================
   DELETE /api/v1/schools/:school_id/sections/:id/subjects/:subject_id
================================ */

func (ctl *SectionController) DeleteSubject(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	sectionID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid section id")
	}
	subjectID, err := uuid.Parse(strings.TrimSpace(c.Params("subject_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid subject id")
	}

	db := ctl.DB.WithContext(c.UserContext())
	var subject academicsModel.SectionSubjectModel
	if err := db.Where("section_subject_id = ? AND section_subject_section_id = ? AND section_subject_school_id = ?",
		subjectID, sectionID, schoolID).First(&subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Subject not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_section_subject_id = ?", subjectID).
			Delete(&assignmentModel.TutorSubjectAssignmentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("section_subject_id = ?", subjectID).
			Delete(&academicsModel.SectionSubjectModel{}).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "section.delete_subject",
			Entity:   "section_subject",
			EntityID: subjectID.String(),
			Metadata: map[string]any{"subject_name": subject.SectionSubjectName},
		})
	})
	if err != nil {
		log.Printf("[ERROR] delete subject tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete subject")
	}

	return helper.Success(c, "Subject deleted", nil)
}
