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

type GradeController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewGradeController(db *gorm.DB) *GradeController {
	return &GradeController{DB: db, Validate: validator.New()}
}

// dedupeNames trims, drops empties and keeps first occurrence order.
func dedupeNames(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

/* ===============================
   POST /api/v1/schools/:school_id/grades
   Grade + sections + each section's subjects in ONE transaction.
================================ */

func (ctl *GradeController) Create(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	actorID, err := helperAuth.GetUserID(c)
	if err != nil {
		return err
	}

	var req dto.CreateGradeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	// Duplicate section names inside the payload are a caller bug; fail
	// before touching the DB.
	seen := make(map[string]struct{}, len(req.Sections))
	for _, s := range req.Sections {
		name := strings.TrimSpace(s.SectionName)
		if _, dup := seen[name]; dup {
			return helper.JsonError(c, fiber.StatusBadRequest, "Duplicate section name in payload: "+name)
		}
		seen[name] = struct{}{}
	}

	db := ctl.DB.WithContext(c.UserContext())
	gradeName := strings.TrimSpace(req.GradeName)

	var n int64
	if err := db.Model(&academicsModel.GradeModel{}).
		Where("grade_school_id = ? AND grade_name = ?", schoolID, gradeName).
		Count(&n).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	if n > 0 {
		return helper.JsonError(c, fiber.StatusConflict, "Grade name already exists in this school")
	}

	grade := academicsModel.GradeModel{
		GradeSchoolID: schoolID,
		GradeName:     gradeName,
	}
	if req.GradeOrder != nil {
		grade.GradeOrder = *req.GradeOrder
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if req.GradeOrder == nil {
			// Next display slot: max+1.
			var maxOrder int
			if err := tx.Model(&academicsModel.GradeModel{}).
				Where("grade_school_id = ?", schoolID).
				Select("COALESCE(MAX(grade_order), 0)").
				Scan(&maxOrder).Error; err != nil {
				return err
			}
			grade.GradeOrder = maxOrder + 1
		}
		if err := tx.Create(&grade).Error; err != nil {
			return err
		}
		for _, s := range req.Sections {
			section := academicsModel.SectionModel{
				SectionGradeID:  grade.GradeID,
				SectionSchoolID: schoolID,
				SectionName:     strings.TrimSpace(s.SectionName),
			}
			if err := tx.Create(&section).Error; err != nil {
				return err
			}
			for _, subjName := range dedupeNames(s.Subjects) {
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
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "grade.create",
			Entity:   "grade",
			EntityID: grade.GradeID.String(),
			Metadata: map[string]any{"grade_name": grade.GradeName, "sections": len(req.Sections)},
		})
	})
	if err != nil {
		log.Printf("[ERROR] create grade tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to create grade")
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Grade created", grade)
}

/* ===============================
   GET /api/v1/schools/:school_id/grades
   Nested grades → sections → subjects → tutors tree.
================================ */

func (ctl *GradeController) ListTree(c *fiber.Ctx) error {
	schoolID, err := helperAuth.ResolveSchoolID(c)
	if err != nil {
		return err
	}
	db := ctl.DB.WithContext(c.UserContext())

	var grades []academicsModel.GradeModel
	if err := db.Where("grade_school_id = ?", schoolID).
		Order("grade_order, grade_name").
		Find(&grades).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	var sections []academicsModel.SectionModel
	if err := db.Where("section_school_id = ?", schoolID).
		Order("section_name").
		Find(&sections).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	var subjects []academicsModel.SectionSubjectModel
	if err := db.Where("section_subject_school_id = ? AND section_subject_is_active = ?", schoolID, true).
		Order("section_subject_name").
		Find(&subjects).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	// Active assignment tutors per subject, one query.
	type tutorRow struct {
		SubjectID uuid.UUID
		TutorID   uuid.UUID
		TutorName string
	}
	var tutorRows []tutorRow
	if err := db.Table("tutor_subject_assignments").
		Select(`tutor_subject_assignments.assignment_section_subject_id AS subject_id,
			tutors.tutor_id,
			tutors.tutor_name`).
		Joins("JOIN tutors ON tutors.tutor_id = tutor_subject_assignments.assignment_tutor_id").
		Where("tutor_subject_assignments.assignment_school_id = ? AND tutor_subject_assignments.assignment_is_active = ?", schoolID, true).
		Order("tutors.tutor_name").
		Scan(&tutorRows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	tutorsBySubject := make(map[uuid.UUID][]dto.SubjectTutorInfo)
	for _, r := range tutorRows {
		tutorsBySubject[r.SubjectID] = append(tutorsBySubject[r.SubjectID], dto.SubjectTutorInfo{
			TutorID:   r.TutorID,
			TutorName: r.TutorName,
		})
	}

	// Class tutor names for sections that have one.
	type classTutorRow struct {
		SectionID uuid.UUID
		TutorID   uuid.UUID
		TutorName string
	}
	var ctRows []classTutorRow
	if err := db.Table("sections").
		Select("sections.section_id, tutors.tutor_id, tutors.tutor_name").
		Joins("JOIN tutors ON tutors.tutor_id = sections.section_class_tutor_id").
		Where("sections.section_school_id = ?", schoolID).
		Scan(&ctRows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}
	classTutorBySection := make(map[uuid.UUID]dto.SubjectTutorInfo, len(ctRows))
	for _, r := range ctRows {
		classTutorBySection[r.SectionID] = dto.SubjectTutorInfo{TutorID: r.TutorID, TutorName: r.TutorName}
	}

	subjectsBySection := make(map[uuid.UUID][]dto.SubjectTreeNode)
	for _, s := range subjects {
		tutors := tutorsBySubject[s.SectionSubjectID]
		if tutors == nil {
			tutors = []dto.SubjectTutorInfo{}
		}
		subjectsBySection[s.SectionSubjectSectionID] = append(subjectsBySection[s.SectionSubjectSectionID], dto.SubjectTreeNode{
			SectionSubjectID: s.SectionSubjectID,
			Name:             s.SectionSubjectName,
			IsActive:         s.SectionSubjectIsActive,
			Tutors:           tutors,
		})
	}

	sectionsByGrade := make(map[uuid.UUID][]dto.SectionTreeNode)
	for _, s := range sections {
		subjectNodes := subjectsBySection[s.SectionID]
		if subjectNodes == nil {
			subjectNodes = []dto.SubjectTreeNode{}
		}
		node := dto.SectionTreeNode{
			SectionID: s.SectionID,
			Name:      s.SectionName,
			Subjects:  subjectNodes,
		}
		if ct, ok := classTutorBySection[s.SectionID]; ok {
			ctCopy := ct
			node.ClassTutor = &ctCopy
		}
		sectionsByGrade[s.SectionGradeID] = append(sectionsByGrade[s.SectionGradeID], node)
	}

	tree := make([]dto.GradeTreeNode, 0, len(grades))
	for _, g := range grades {
		sectionNodes := sectionsByGrade[g.GradeID]
		if sectionNodes == nil {
			sectionNodes = []dto.SectionTreeNode{}
		}
		tree = append(tree, dto.GradeTreeNode{
			GradeID:  g.GradeID,
			Name:     g.GradeName,
			Order:    g.GradeOrder,
			Sections: sectionNodes,
		})
	}

	return helper.Success(c, "OK", tree)
}

/* ===============================
   PUT /api/v1/schools/:school_id/grades/:id
================================ */

func (ctl *GradeController) Update(c *fiber.Ctx) error {
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
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid grade id")
	}

	var req dto.UpdateGradeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request format")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var grade academicsModel.GradeModel
	if err := db.Where("grade_id = ? AND grade_school_id = ?", id, schoolID).First(&grade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Grade not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if req.GradeName != nil {
		name := strings.TrimSpace(*req.GradeName)
		if name != grade.GradeName {
			var n int64
			if err := db.Model(&academicsModel.GradeModel{}).
				Where("grade_school_id = ? AND grade_name = ? AND grade_id <> ?", schoolID, name, id).
				Count(&n).Error; err != nil {
				return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
			}
			if n > 0 {
				return helper.JsonError(c, fiber.StatusConflict, "Grade name already exists in this school")
			}
			grade.GradeName = name
		}
	}
	if req.GradeOrder != nil {
		grade.GradeOrder = *req.GradeOrder
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&grade).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "grade.update",
			Entity:   "grade",
			EntityID: grade.GradeID.String(),
		})
	})
	if err != nil {
		log.Printf("[ERROR] update grade tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to update grade")
	}

	return helper.Success(c, "Grade updated", grade)
}

/* ===============================
   DELETE /api/v1/schools/:school_id/grades/:id
================================ */

func (ctl *GradeController) Delete(c *fiber.Ctx) error {
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
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid grade id")
	}

	db := ctl.DB.WithContext(c.UserContext())
	var grade academicsModel.GradeModel
	if err := db.Where("grade_id = ? AND grade_school_id = ?", id, schoolID).First(&grade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Grade not found")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var sectionIDs []uuid.UUID
		if err := tx.Model(&academicsModel.SectionModel{}).
			Where("section_grade_id = ?", id).
			Pluck("section_id", &sectionIDs).Error; err != nil {
			return err
		}
		if len(sectionIDs) > 0 {
			var subjectIDs []uuid.UUID
			if err := tx.Model(&academicsModel.SectionSubjectModel{}).
				Where("section_subject_section_id IN ?", sectionIDs).
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
			if err := tx.Where("section_id IN ?", sectionIDs).
				Delete(&academicsModel.SectionModel{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("grade_id = ?", id).Delete(&academicsModel.GradeModel{}).Error; err != nil {
			return err
		}
		return auditService.LogAction(tx, auditService.Entry{
			SchoolID: &schoolID,
			UserID:   actorID,
			Action:   "grade.delete",
			Entity:   "grade",
			EntityID: id.String(),
			Metadata: map[string]any{"grade_name": grade.GradeName},
		})
	})
	if err != nil {
		log.Printf("[ERROR] delete grade tx: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to delete grade")
	}

	return helper.Success(c, "Grade deleted", nil)
}
