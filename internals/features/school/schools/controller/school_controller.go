package controller

import (
	"errors"
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
	"schoolku_backend/internals/features/school/schools/dto"
	schoolModel "schoolku_backend/internals/features/school/schools/model"
	tutorModel "schoolku_backend/internals/features/school/tutors/model"
	userModel "schoolku_backend/internals/features/users/user/model"
	helper "schoolku_backend/internals/helpers"
	helperAuth "schoolku_backend/internals/helpers/auth"
)

type SchoolController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewSchoolController(db *gorm.DB) *SchoolController {
	return &SchoolController{DB: db, Validate: validator.New()}
}

// emailTaken checks both login identities and tutors, since a tutor email
// always has a mirrored user account.
func emailTaken(db *gorm.DB, email string, excludeUserID *uuid.UUID) (bool, error) {
	var n int64
	q := db.Model(&userModel.UserModel{}).Where("user_email = ?", email)
	if excludeUserID != nil {
		q = q.Where("user_id <> ?", *excludeUserID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := db.Model(&tutorModel.TutorModel{}).Where("tutor_email = ?", email).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

/* ===============================
   POST /api/v1/superadmin/schools
================================ */

func (ctl *SchoolController) Create(c *fiber.Ctx) error {
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}

	var req dto.CreateSchoolRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	code := strings.TrimSpace(req.SchoolCode)
	adminEmail := strings.ToLower(strings.TrimSpace(req.AdminEmail))

	// Uniqueness short-circuits before the transaction.
	var n int64
	if err := db.Model(&schoolModel.SchoolModel{}).Where("school_code = ?", code).Count(&n).Error; err != nil {
		log.Printf("[ERROR] school code check: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	if n > 0 {
		return helper.JsonError(c, fiber.StatusConflict, "School code already exists")
	}
	if taken, err := emailTaken(db, adminEmail, nil); err != nil {
		log.Printf("[ERROR] admin email check: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	} else if taken {
		return helper.JsonError(c, fiber.StatusConflict, "Admin email already in use")
	}

	tempPassword, err := helper.GenerateTempPassword(helper.TempPasswordLength)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to generate password")
	}
	hash, err := helper.HashPassword(tempPassword)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to hash password")
	}

	school := schoolModel.SchoolModel{
		SchoolCode:     code,
		SchoolName:     strings.TrimSpace(req.SchoolName),
		SchoolAddress:  req.SchoolAddress,
		SchoolPhone:    req.SchoolPhone,
		SchoolIsActive: true,
	}
	admin := userModel.UserModel{
		UserName:     strings.TrimSpace(req.AdminName),
		UserEmail:    adminEmail,
		UserPassword: hash,
		UserRole:     constants.RoleSchoolAdmin,
		UserIsActive: true,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&school).Error; err != nil {
			return err
		}
		admin.UserSchoolID = &school.SchoolID
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &school.SchoolID,
			UserID:   actorID,
			Action:   "school.create",
			Entity:   "school",
			EntityID: school.SchoolID.String(),
			Metadata: map[string]any{"school_code": school.SchoolCode, "admin_email": admin.UserEmail},
		})
	})
	if err != nil {
		// The pre-checks race against concurrent creates; the unique indexes
		// are the source of truth.
		if helper.IsUniqueViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "School code or admin email already exists")
		}
		log.Printf("[ERROR] create school tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to create school")
	}

	// The plaintext temp password leaves the server exactly once, here.
	return helper.SuccessWithCode(c, fiber.StatusCreated, "School created", dto.CreateSchoolResponse{
		School: school,
		Admin: dto.SchoolAdminInfo{
			UserID: admin.UserID,
			Name:   admin.UserName,
			Email:  admin.UserEmail,
		},
		TemporaryPassword: tempPassword,
	})
}

/* ===============================
   GET /api/v1/superadmin/schools
================================ */

func (ctl *SchoolController) List(c *fiber.Ctx) error {
	db := ctl.DB.WithContext(c.UserContext())
	paging := helper.ResolvePaging(c, 25, 200)

	q := db.Model(&schoolModel.SchoolModel{})
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(school_code) LIKE ? OR LOWER(school_name) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	var schools []schoolModel.SchoolModel
	if err := q.Order("school_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&schools).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return helper.SuccessWithPagination(c, "OK", schools, helper.BuildPagination(paging, total, len(schools)))
}

/* ===============================
   GET /api/v1/superadmin/schools/:id
================================ */

func (ctl *SchoolController) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid school id")
	}
	db := ctl.DB.WithContext(c.UserContext())

	var school schoolModel.SchoolModel
	if err := db.Where("school_id = ?", id).First(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "School not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	resp := dto.SchoolDetailResponse{School: school}

	var admin userModel.UserModel
	if err := db.Where("user_school_id = ? AND user_role = ?", id, constants.RoleSchoolAdmin).
		First(&admin).Error; err == nil {
		resp.Admin = &dto.SchoolAdminInfo{UserID: admin.UserID, Name: admin.UserName, Email: admin.UserEmail}
	}

	if err := db.Model(&tutorModel.TutorModel{}).Where("tutor_school_id = ?", id).Count(&resp.Counts.Tutors).Error; err != nil {
		log.Printf("[ERROR] school detail tutor count: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	if err := db.Model(&academicsModel.GradeModel{}).Where("grade_school_id = ?", id).Count(&resp.Counts.Grades).Error; err != nil {
		log.Printf("[ERROR] school detail grade count: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	if err := db.Model(&academicsModel.SectionModel{}).Where("section_school_id = ?", id).Count(&resp.Counts.Sections).Error; err != nil {
		log.Printf("[ERROR] school detail section count: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return helper.Success(c, "OK", resp)
}

/* ===============================
   PUT /api/v1/superadmin/schools/:id
================================ */

func (ctl *SchoolController) Update(c *fiber.Ctx) error {
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid school id")
	}

	var req dto.UpdateSchoolRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var school schoolModel.SchoolModel
	if err := db.Where("school_id = ?", id).First(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "School not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if req.SchoolCode != nil {
		code := strings.TrimSpace(*req.SchoolCode)
		var n int64
		if err := db.Model(&schoolModel.SchoolModel{}).
			Where("school_code = ? AND school_id <> ?", code, id).
			Count(&n).Error; err != nil {
			return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
		}
		if n > 0 {
			return helper.JsonError(c, fiber.StatusConflict, "School code already exists")
		}
		school.SchoolCode = code
	}
	if req.SchoolName != nil {
		school.SchoolName = strings.TrimSpace(*req.SchoolName)
	}
	if req.SchoolAddress != nil {
		school.SchoolAddress = req.SchoolAddress
	}
	if req.SchoolPhone != nil {
		school.SchoolPhone = req.SchoolPhone
	}
	if req.SchoolIsActive != nil {
		school.SchoolIsActive = *req.SchoolIsActive
	}

	var admin userModel.UserModel
	haveAdmin := false
	if req.HasAdminFields() {
		if err := db.Where("user_school_id = ? AND user_role = ?", id, constants.RoleSchoolAdmin).
			First(&admin).Error; err != nil {
			return helper.JsonError(c, fiber.StatusNotFound, "School admin not found")
		}
		haveAdmin = true
		if req.AdminEmail != nil {
			email := strings.ToLower(strings.TrimSpace(*req.AdminEmail))
			if taken, err := emailTaken(db, email, &admin.UserID); err != nil {
				return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
			} else if taken {
				return helper.JsonError(c, fiber.StatusConflict, "Admin email already in use")
			}
			admin.UserEmail = email
		}
		if req.AdminName != nil {
			admin.UserName = strings.TrimSpace(*req.AdminName)
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&school).Error; err != nil {
			return err
		}
		if haveAdmin {
			if err := tx.Save(&admin).Error; err != nil {
				return err
			}
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &school.SchoolID,
			UserID:   actorID,
			Action:   "school.update",
			Entity:   "school",
			EntityID: school.SchoolID.String(),
		})
	})
	if err != nil {
		log.Printf("[ERROR] update school tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update school")
	}

	return helper.Success(c, "School updated", school)
}

/* ===============================
   DELETE /api/v1/superadmin/schools/:id
   Explicit transactional cascade: assignments → subjects → sections →
   grades → tutors → users → school.
================================ */

func (ctl *SchoolController) Delete(c *fiber.Ctx) error {
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid school id")
	}

	db := ctl.DB.WithContext(c.UserContext())
	var school schoolModel.SchoolModel
	if err := db.Where("school_id = ?", id).First(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "School not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_school_id = ?", id).
			Delete(&assignmentModel.TutorSubjectAssignmentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("section_subject_school_id = ?", id).
			Delete(&academicsModel.SectionSubjectModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("section_school_id = ?", id).
			Delete(&academicsModel.SectionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("grade_school_id = ?", id).
			Delete(&academicsModel.GradeModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tutor_school_id = ?", id).
			Delete(&tutorModel.TutorModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_school_id = ?", id).
			Delete(&userModel.UserModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("school_id = ?", id).
			Delete(&schoolModel.SchoolModel{}).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			UserID:   actorID,
			Action:   "school.delete",
			Entity:   "school",
			EntityID: id.String(),
			Metadata: map[string]any{"school_code": school.SchoolCode},
		})
	})
	if err != nil {
		log.Printf("[ERROR] delete school tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete school")
	}

	return helper.Success(c, "School deleted", nil)
}

/* ===============================
   POST /api/v1/superadmin/schools/:id/reset-admin-password
================================ */

func (ctl *SchoolController) ResetAdminPassword(c *fiber.Ctx) error {
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid school id")
	}

	db := ctl.DB.WithContext(c.UserContext())
	var admin userModel.UserModel
	if err := db.Where("user_school_id = ? AND user_role = ?", id, constants.RoleSchoolAdmin).
		First(&admin).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, "School admin not found")
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
			Where("user_id = ?", admin.UserID).
			Update("user_password", hash).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: admin.UserSchoolID,
			UserID:   actorID,
			Action:   "school.reset_admin_password",
			Entity:   "user",
			EntityID: admin.UserID.String(),
		})
	})
	if err != nil {
		log.Printf("[ERROR] reset admin password tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to reset password")
	}

	return helper.Success(c, "Password reset", fiber.Map{"temporary_password": tempPassword})
}
