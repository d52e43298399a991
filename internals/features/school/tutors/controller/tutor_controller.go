package controller

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/constants"
	auditService "schoolku_backend/internals/features/audit/service"
	academicsModel "schoolku_backend/internals/features/school/academics/model"
	assignmentModel "schoolku_backend/internals/features/school/assignments/model"
	"schoolku_backend/internals/features/school/tutors/dto"
	tutorModel "schoolku_backend/internals/features/school/tutors/model"
	userModel "schoolku_backend/internals/features/users/user/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type TutorController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewTutorController(db *gorm.DB) *TutorController {
	return &TutorController{DB: db, Validate: validator.New()}
}

// tutorEmailTaken checks users and tutors, optionally excluding one
// tutor/user pair (for updates).
func tutorEmailTaken(db *gorm.DB, email string, excludeTutor *tutorModel.TutorModel) (bool, error) {
	var n int64
	uq := db.Model(&userModel.UserModel{}).Where("user_email = ?", email)
	tq := db.Model(&tutorModel.TutorModel{}).Where("tutor_email = ?", email)
	if excludeTutor != nil {
		uq = uq.Where("user_id <> ?", excludeTutor.TutorUserID)
		tq = tq.Where("tutor_id <> ?", excludeTutor.TutorID)
	}
	if err := uq.Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := tq.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// classTutorLabels returns "Grade 1-A" style labels for every section the
// tutor homerooms.
func classTutorLabels(db *gorm.DB, tutorID uuid.UUID) ([]string, error) {
	type row struct {
		GradeName   string
		SectionName string
	}
	var rows []row
	err := db.Table("sections").
		Select("grades.grade_name AS grade_name, sections.section_name AS section_name").
		Joins("JOIN grades ON grades.grade_id = sections.section_grade_id").
		Where("sections.section_class_tutor_id = ?", tutorID).
		Order("grades.grade_order, sections.section_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(rows))
	for _, r := range rows {
		labels = append(labels, fmt.Sprintf("%s-%s", r.GradeName, r.SectionName))
	}
	return labels, nil
}

/* ===============================
   POST /api/v1/schools/:school_id/tutors
================================ */

func (ctl *TutorController) Create(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}

	var req dto.CreateTutorRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	email := strings.ToLower(strings.TrimSpace(req.TutorEmail))

	if taken, err := tutorEmailTaken(db, email, nil); err != nil {
		log.Printf("[ERROR] tutor email check: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	} else if taken {
		return helper.JsonError(c, fiber.StatusConflict, "Email already in use")
	}

	tempPassword, err := helper.GenerateTempPassword(helper.TempPasswordLength)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to generate password")
	}
	hash, err := helper.HashPassword(tempPassword)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to hash password")
	}

	user := userModel.UserModel{
		UserName:     strings.TrimSpace(req.TutorName),
		UserEmail:    email,
		UserPassword: hash,
		UserRole:     constants.RoleTeacher,
		UserSchoolID: &schoolID,
		UserIsActive: true,
	}
	tutor := tutorModel.TutorModel{
		TutorSchoolID: schoolID,
		TutorName:     strings.TrimSpace(req.TutorName),
		TutorEmail:    email,
		TutorPhone:    strings.TrimSpace(req.TutorPhone),
		TutorIsActive: true,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		tutor.TutorUserID = user.UserID
		if err := tx.Create(&tutor).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "tutor.create",
			Entity:   "tutor",
			EntityID: tutor.TutorID.String(),
			Metadata: map[string]any{"tutor_email": tutor.TutorEmail},
		})
	})
	if err != nil {
		// Email uniqueness is re-checked by the index in case a concurrent
		// create slipped past the pre-check.
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "Email already in use")
		}
		log.Printf("[ERROR] create tutor tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to create tutor")
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Tutor created", dto.CreateTutorResponse{
		Tutor:             tutor,
		TemporaryPassword: tempPassword,
	})
}

/* ===============================
   GET /api/v1/schools/:school_id/tutors
================================ */

func (ctl *TutorController) List(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	db := ctl.DB.WithContext(c.UserContext())
	paging := helper.ResolvePaging(c, 25, 200)

	q := db.Model(&tutorModel.TutorModel{}).Where("tutor_school_id = ?", schoolID)
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(tutor_name) LIKE ? OR LOWER(tutor_email) LIKE ?", like, like)
	}
	if v := strings.TrimSpace(c.Query("is_active")); v != "" {
		q = q.Where("tutor_is_active = ?", v == "true" || v == "1")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	var tutors []tutorModel.TutorModel
	if err := q.Order("tutor_name").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&tutors).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	items := make([]dto.TutorListItem, 0, len(tutors))
	for _, t := range tutors {
		item := dto.TutorListItem{TutorModel: t, ClassTutorOf: []string{}}
		db.Model(&assignmentModel.TutorSubjectAssignmentModel{}).
			Where("assignment_tutor_id = ? AND assignment_is_active = ?", t.TutorID, true).
			Count(&item.ActiveAssignments)
		if labels, err := classTutorLabels(db, t.TutorID); err == nil {
			item.ClassTutorOf = labels
		}
		items = append(items, item)
	}

	return helper.SuccessWithPagination(c, "OK", items, helper.BuildPagination(paging, total, len(items)))
}

/* ===============================
   GET /api/v1/schools/:school_id/tutors/:id
================================ */

func (ctl *TutorController) GetByID(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid tutor id")
	}
	db := ctl.DB.WithContext(c.UserContext())

	var tutor tutorModel.TutorModel
	if err := db.Where("tutor_id = ? AND tutor_school_id = ?", id, schoolID).First(&tutor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Tutor not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	var assignments []dto.TutorAssignmentInfo
	err = db.Table("tutor_subject_assignments").
		Select(`tutor_subject_assignments.assignment_id,
			section_subjects.section_subject_id AS subject_id,
			section_subjects.section_subject_name AS subject_name,
			sections.section_id,
			sections.section_name,
			grades.grade_id,
			grades.grade_name,
			tutor_subject_assignments.assignment_is_active AS is_active`).
		Joins("JOIN section_subjects ON section_subjects.section_subject_id = tutor_subject_assignments.assignment_section_subject_id").
		Joins("JOIN sections ON sections.section_id = section_subjects.section_subject_section_id").
		Joins("JOIN grades ON grades.grade_id = sections.section_grade_id").
		Where("tutor_subject_assignments.assignment_tutor_id = ?", id).
		Order("grades.grade_order, sections.section_name, section_subjects.section_subject_name").
		Scan(&assignments).Error
	if err != nil {
		log.Printf("[ERROR] tutor assignments: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	labels, _ := classTutorLabels(db, id)
	if labels == nil {
		labels = []string{}
	}
	if assignments == nil {
		assignments = []dto.TutorAssignmentInfo{}
	}

	return helper.Success(c, "OK", dto.TutorDetailResponse{
		Tutor:        tutor,
		Assignments:  assignments,
		ClassTutorOf: labels,
	})
}

/* ===============================
   PUT /api/v1/schools/:school_id/tutors/:id
   Name/email/phone changes are mirrored onto the linked user.
================================ */

func (ctl *TutorController) Update(c *fiber.Ctx) error {
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
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid tutor id")
	}

	var req dto.UpdateTutorRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var tutor tutorModel.TutorModel
	if err := db.Where("tutor_id = ? AND tutor_school_id = ?", id, schoolID).First(&tutor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Tutor not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if req.TutorEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*req.TutorEmail))
		if email != tutor.TutorEmail {
			if taken, err := tutorEmailTaken(db, email, &tutor); err != nil {
				return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
			} else if taken {
				return helper.JsonError(c, fiber.StatusConflict, "Email already in use")
			}
			tutor.TutorEmail = email
		}
	}
	if req.TutorName != nil {
		tutor.TutorName = strings.TrimSpace(*req.TutorName)
	}
	if req.TutorPhone != nil {
		tutor.TutorPhone = strings.TrimSpace(*req.TutorPhone)
	}
	if req.TutorIsActive != nil {
		tutor.TutorIsActive = *req.TutorIsActive
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&tutor).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"user_name":  tutor.TutorName,
			"user_email": tutor.TutorEmail,
		}
		if req.TutorIsActive != nil {
			updates["user_is_active"] = tutor.TutorIsActive
		}
		if err := tx.Model(&userModel.UserModel{}).
			Where("user_id = ?", tutor.TutorUserID).
			Updates(updates).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "tutor.update",
			Entity:   "tutor",
			EntityID: tutor.TutorID.String(),
		})
	})
	if err != nil {
		log.Printf("[ERROR] update tutor tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update tutor")
	}

	return helper.Success(c, "Tutor updated", tutor)
}

/* ===============================
   DELETE /api/v1/schools/:school_id/tutors/:id?force=true
   Refuses when the tutor still has active assignments or homerooms a
   section, unless force is supplied.
================================ */

func (ctl *TutorController) Delete(c *fiber.Ctx) error {
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
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid tutor id")
	}
	force := c.Query("force") == "true"

	db := ctl.DB.WithContext(c.UserContext())
	var tutor tutorModel.TutorModel
	if err := db.Where("tutor_id = ? AND tutor_school_id = ?", id, schoolID).First(&tutor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Tutor not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	var activeAssignments, classSections int64
	db.Model(&assignmentModel.TutorSubjectAssignmentModel{}).
		Where("assignment_tutor_id = ? AND assignment_is_active = ?", id, true).
		Count(&activeAssignments)
	db.Model(&academicsModel.SectionModel{}).
		Where("section_class_tutor_id = ?", id).
		Count(&classSections)

	if !force && (activeAssignments > 0 || classSections > 0) {
		return helper.JsonError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Tutor has %d active assignment(s) and %d class tutor section(s); pass force=true to delete anyway",
				activeAssignments, classSections))
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&academicsModel.SectionModel{}).
			Where("section_class_tutor_id = ?", id).
			Update("section_class_tutor_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("assignment_tutor_id = ?", id).
			Delete(&assignmentModel.TutorSubjectAssignmentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tutor_id = ?", id).Delete(&tutorModel.TutorModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", tutor.TutorUserID).Delete(&userModel.UserModel{}).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "tutor.delete",
			Entity:   "tutor",
			EntityID: id.String(),
			Metadata: map[string]any{"forced": force, "active_assignments": activeAssignments},
		})
	})
	if err != nil {
		log.Printf("[ERROR] delete tutor tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete tutor")
	}

	return helper.Success(c, "Tutor deleted", nil)
}

/* ===============================
   POST /api/v1/schools/:school_id/tutors/:id/reset-password
   Rotates only the linked user's password hash.
================================ */

func (ctl *TutorController) ResetPassword(c *fiber.Ctx) error {
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
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid tutor id")
	}

	db := ctl.DB.WithContext(c.UserContext())
	var tutor tutorModel.TutorModel
	if err := db.Where("tutor_id = ? AND tutor_school_id = ?", id, schoolID).First(&tutor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Tutor not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	tempPassword, err := helper.GenerateTempPassword(helper.TempPasswordLength)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to generate password")
	}
	hash, err := helper.HashPassword(tempPassword)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to hash password")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&userModel.UserModel{}).
			Where("user_id = ?", tutor.TutorUserID).
			Update("user_password", hash).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "tutor.reset_password",
			Entity:   "tutor",
			EntityID: id.String(),
		})
	})
	if err != nil {
		log.Printf("[ERROR] reset tutor password tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to reset password")
	}

	return helper.Success(c, "Password reset", fiber.Map{"temporary_password": tempPassword})
}
