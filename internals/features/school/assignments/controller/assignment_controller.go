package controller

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	auditService "schoolku_backend/internals/features/audit/service"
	academicsModel "schoolku_backend/internals/features/school/academics/model"
	"schoolku_backend/internals/features/school/assignments/dto"
	assignmentModel "schoolku_backend/internals/features/school/assignments/model"
	tutorModel "schoolku_backend/internals/features/school/tutors/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type AssignmentController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewAssignmentController(db *gorm.DB) *AssignmentController {
	return &AssignmentController{DB: db, Validate: validator.New()}
}

// Composite key "Grade 1-A" → ("Grade 1", "A"). Greedy group 1, so a grade
// name that itself ends in "-X" swallows the hyphen; callers are expected to
// avoid such grade names.
var assignKeyRe = regexp.MustCompile(`^(.+)-([A-Z])$`)

/* ===============================
   POST /api/v1/schools/:school_id/assignments
================================ */

func (ctl *AssignmentController) SmartAssign(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}

	var req dto.SmartAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	tutor, err := ctl.findSchoolTutor(db, schoolID, req.TutorID)
	if err != nil {
		return err
	}

	var result *dto.SmartAssignResponse
	err = db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = ctl.runSmartAssign(tx, schoolID, actorID, tutor, &req)
		return txErr
	})
	if err != nil {
		log.Printf("[ERROR] smart assign tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to assign tutor")
	}

	return helper.Success(c, "Assignments processed", result)
}

/* ===============================
   PUT /api/v1/schools/:school_id/assignments/:tutor_id
   Replace semantics: wipe the tutor's assignments (and homerooms), then
   re-run smart assign with the new body, all in one transaction.
================================ */

func (ctl *AssignmentController) UpdateTutorAssignments(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	tutorID, err := uuid.Parse(strings.TrimSpace(c.Params("tutor_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid tutor id")
	}

	var req dto.SmartAssignRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	req.TutorID = tutorID
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	tutor, err := ctl.findSchoolTutor(db, schoolID, tutorID)
	if err != nil {
		return err
	}

	var result *dto.SmartAssignResponse
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := wipeTutorAssignments(tx, tutorID); err != nil {
			return err
		}
		var txErr error
		result, txErr = ctl.runSmartAssign(tx, schoolID, actorID, tutor, &req)
		return txErr
	})
	if err != nil {
		log.Printf("[ERROR] update assignments tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update assignments")
	}

	return helper.Success(c, "Assignments replaced", result)
}

/* ===============================
   GET /api/v1/schools/:school_id/assignments?tutor_id=
================================ */

func (ctl *AssignmentController) List(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	db := ctl.DB.WithContext(c.UserContext())

	q := db.Table("tutor_subject_assignments").
		Select(`tutor_subject_assignments.assignment_id,
			tutors.tutor_id,
			tutors.tutor_name,
			section_subjects.section_subject_id,
			section_subjects.section_subject_name AS subject_name,
			sections.section_id,
			sections.section_name,
			grades.grade_name,
			tutor_subject_assignments.assignment_is_active AS is_active`).
		Joins("JOIN tutors ON tutors.tutor_id = tutor_subject_assignments.assignment_tutor_id").
		Joins("JOIN section_subjects ON section_subjects.section_subject_id = tutor_subject_assignments.assignment_section_subject_id").
		Joins("JOIN sections ON sections.section_id = section_subjects.section_subject_section_id").
		Joins("JOIN grades ON grades.grade_id = sections.section_grade_id").
		Where("tutor_subject_assignments.assignment_school_id = ?", schoolID)

	if v := strings.TrimSpace(c.Query("tutor_id")); v != "" {
		tid, err := uuid.Parse(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid tutor_id")
		}
		q = q.Where("tutor_subject_assignments.assignment_tutor_id = ?", tid)
	}

	var items []dto.AssignmentListItem
	if err := q.Order("grades.grade_order, sections.section_name, section_subjects.section_subject_name").
		Scan(&items).Error; err != nil {
		log.Printf("[ERROR] list assignments: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	if items == nil {
		items = []dto.AssignmentListItem{}
	}
	return helper.Success(c, "OK", items)
}

/* ===============================
   DELETE /api/v1/schools/:school_id/assignments/:id
================================ */

func (ctl *AssignmentController) Remove(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid assignment id")
	}

	db := ctl.DB.WithContext(c.UserContext())
	var row assignmentModel.TutorSubjectAssignmentModel
	if err := db.Where("assignment_id = ? AND assignment_school_id = ?", id, schoolID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Assignment not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).
			Delete(&assignmentModel.TutorSubjectAssignmentModel{}).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "assignment.delete",
			Entity:   "assignment",
			EntityID: id.String(),
		})
	})
	if err != nil {
		log.Printf("[ERROR] remove assignment tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to remove assignment")
	}

	return helper.Success(c, "Assignment removed", nil)
}

/* ===============================
   DELETE /api/v1/schools/:school_id/tutors/:tutor_id/assignments
================================ */

func (ctl *AssignmentController) DeleteAllForTutor(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	tutorID, err := uuid.Parse(strings.TrimSpace(c.Params("tutor_id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid tutor id")
	}

	db := ctl.DB.WithContext(c.UserContext())
	if _, err := ctl.findSchoolTutor(db, schoolID, tutorID); err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := wipeTutorAssignments(tx, tutorID); err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "assignment.delete_all",
			Entity:   "tutor",
			EntityID: tutorID.String(),
		})
	})
	if err != nil {
		log.Printf("[ERROR] delete all assignments tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete assignments")
	}

	return helper.Success(c, "Assignments deleted", nil)
}

/* ===============================
   internals
================================ */

func (ctl *AssignmentController) findSchoolTutor(db *gorm.DB, schoolID, tutorID uuid.UUID) (*tutorModel.TutorModel, error) {
	var tutor tutorModel.TutorModel
	if err := db.Where("tutor_id = ? AND tutor_school_id = ?", tutorID, schoolID).First(&tutor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Tutor not found in this school")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
	}
	return &tutor, nil
}

// wipeTutorAssignments hard-deletes the tutor's assignment rows and clears
// any section_class_tutor_id pointing at them.
func wipeTutorAssignments(tx *gorm.DB, tutorID uuid.UUID) error {
	if err := tx.Where("assignment_tutor_id = ?", tutorID).
		Delete(&assignmentModel.TutorSubjectAssignmentModel{}).Error; err != nil {
		return err
	}
	return tx.Model(&academicsModel.SectionModel{}).
		Where("section_class_tutor_id = ?", tutorID).
		Update("section_class_tutor_id", nil).Error
}

// runSmartAssign is the batch core. Partial-success model: per-key problems
// land in result.Errors, only infrastructure failures abort the transaction.
func (ctl *AssignmentController) runSmartAssign(
	tx *gorm.DB,
	schoolID, actorID uuid.UUID,
	tutor *tutorModel.TutorModel,
	req *dto.SmartAssignRequest,
) (*dto.SmartAssignResponse, error) {
	result := &dto.SmartAssignResponse{
		CreatedAssignments: []dto.AssignmentRef{},
		SkippedAssignments: []dto.AssignmentRef{},
		Errors:             []string{},
	}

	for key, subjectNames := range req.Assignments {
		m := assignKeyRe.FindStringSubmatch(strings.TrimSpace(key))
		if m == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("invalid assignment key %q (want \"GradeName-SectionLetter\")", key))
			continue
		}
		gradeName, sectionName := m[1], m[2]

		section, err := resolveSection(tx, schoolID, gradeName, sectionName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Errors = append(result.Errors, fmt.Sprintf("grade %q / section %q not found", gradeName, sectionName))
				continue
			}
			return nil, err
		}

		for _, rawName := range subjectNames {
			subjName := strings.TrimSpace(rawName)
			if subjName == "" {
				continue
			}
			subject, err := findOrCreateSubject(tx, schoolID, section.SectionID, subjName)
			if err != nil {
				return nil, err
			}

			ref := dto.AssignmentRef{
				SectionSubjectID: subject.SectionSubjectID,
				SubjectName:      subject.SectionSubjectName,
				GradeName:        gradeName,
				SectionName:      sectionName,
			}

			var existing assignmentModel.TutorSubjectAssignmentModel
			err = tx.Where("assignment_tutor_id = ? AND assignment_section_subject_id = ?",
				tutor.TutorID, subject.SectionSubjectID).First(&existing).Error
			switch {
			case err == nil && existing.AssignmentIsActive:
				ref.AssignmentID = existing.AssignmentID
				result.SkippedAssignments = append(result.SkippedAssignments, ref)
			case err == nil:
				if err := tx.Model(&assignmentModel.TutorSubjectAssignmentModel{}).
					Where("assignment_id = ?", existing.AssignmentID).
					Update("assignment_is_active", true).Error; err != nil {
					return nil, err
				}
				ref.AssignmentID = existing.AssignmentID
				result.CreatedAssignments = append(result.CreatedAssignments, ref)
			case errors.Is(err, gorm.ErrRecordNotFound):
				row := assignmentModel.TutorSubjectAssignmentModel{
					AssignmentSchoolID:         schoolID,
					AssignmentTutorID:          tutor.TutorID,
					AssignmentSectionSubjectID: subject.SectionSubjectID,
					AssignmentIsActive:         true,
				}
				if err := tx.Create(&row).Error; err != nil {
					return nil, err
				}
				ref.AssignmentID = row.AssignmentID
				result.CreatedAssignments = append(result.CreatedAssignments, ref)
			default:
				return nil, err
			}
		}
	}

	// Optional homeroom designation.
	if req.ClassGrade != nil && req.ClassSection != nil {
		gradeName := strings.TrimSpace(*req.ClassGrade)
		sectionName := strings.TrimSpace(*req.ClassSection)
		section, err := resolveSection(tx, schoolID, gradeName, sectionName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Errors = append(result.Errors, fmt.Sprintf("class section %q-%q not found", gradeName, sectionName))
			} else {
				return nil, err
			}
		} else {
			// Single conditional update; affected-row count detects a
			// concurrent winner instead of a racy read-then-write.
			res := tx.Model(&academicsModel.SectionModel{}).
				Where("section_id = ? AND (section_class_tutor_id IS NULL OR section_class_tutor_id = ?)",
					section.SectionID, tutor.TutorID).
				Update("section_class_tutor_id", tutor.TutorID)
			if res.Error != nil {
				return nil, res.Error
			}
			if res.RowsAffected == 0 {
				result.Errors = append(result.Errors,
					fmt.Sprintf("section %s-%s already has a different class tutor", gradeName, sectionName))
			} else {
				result.ClassTutorAssignment = &dto.ClassTutorResult{
					SectionID:   section.SectionID,
					GradeName:   gradeName,
					SectionName: sectionName,
				}
			}
		}
	} else if req.ClassGrade != nil || req.ClassSection != nil {
		result.Errors = append(result.Errors, "class_grade and class_section must be provided together")
	}

	if err := auditService.LogAction(tx, auditService.Entry{
		SchoolID: &schoolID,
		UserID:   actorID,
		Action:   "assignment.smart_assign",
		Entity:   "tutor",
		EntityID: tutor.TutorID.String(),
		Metadata: map[string]any{
			"created": len(result.CreatedAssignments),
			"skipped": len(result.SkippedAssignments),
			"errors":  len(result.Errors),
		},
	}); err != nil {
		return nil, err
	}

	return result, nil
}

func resolveSection(tx *gorm.DB, schoolID uuid.UUID, gradeName, sectionName string) (*academicsModel.SectionModel, error) {
	var grade academicsModel.GradeModel
	if err := tx.Where("grade_school_id = ? AND grade_name = ?", schoolID, gradeName).First(&grade).Error; err != nil {
		return nil, err
	}
	var section academicsModel.SectionModel
	if err := tx.Where("section_grade_id = ? AND section_name = ?", grade.GradeID, sectionName).First(&section).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

// findOrCreateSubject matches by (section_id, name); an inactive match is
// reactivated, id preserved.
func findOrCreateSubject(tx *gorm.DB, schoolID, sectionID uuid.UUID, name string) (*academicsModel.SectionSubjectModel, error) {
	var subject academicsModel.SectionSubjectModel
	err := tx.Where("section_subject_section_id = ? AND section_subject_name = ?", sectionID, name).
		First(&subject).Error
	if err == nil {
		if !subject.SectionSubjectIsActive {
			if err := tx.Model(&academicsModel.SectionSubjectModel{}).
				Where("section_subject_id = ?", subject.SectionSubjectID).
				Update("section_subject_is_active", true).Error; err != nil {
				return nil, err
			}
			subject.SectionSubjectIsActive = true
		}
		return &subject, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	subject = academicsModel.SectionSubjectModel{
		SectionSubjectSectionID: sectionID,
		SectionSubjectSchoolID:  schoolID,
		SectionSubjectName:      name,
		SectionSubjectIsActive:  true,
	}
	if err := tx.Create(&subject).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}
