package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/constants"
	database "schoolku_backend/internals/databases"
	academicsModel "schoolku_backend/internals/features/school/academics/model"
	assignmentModel "schoolku_backend/internals/features/school/assignments/model"
	schoolModel "schoolku_backend/internals/features/school/schools/model"
	tutorModel "schoolku_backend/internals/features/school/tutors/model"
	authService "schoolku_backend/internals/features/users/auth/service"
	userModel "schoolku_backend/internals/features/users/user/model"
	helper "schoolku_backend/internals/helpers"
	routes "schoolku_backend/internals/route"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	configs.JWTSecret = "unit-test-access-secret"
	configs.JWTRefreshSecret = "unit-test-refresh-secret"

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	app := fiber.New(fiber.Config{ErrorHandler: helper.FiberErrorHandler})
	routes.SetupRoutes(app, db)
	return app, db
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) (int, apiEnvelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env apiEnvelope
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

// seedSchoolAdmin provisions a school plus an admin session token.
func seedSchoolAdmin(t *testing.T, db *gorm.DB, code string) (*schoolModel.SchoolModel, string) {
	t.Helper()
	school := schoolModel.SchoolModel{
		SchoolCode:     code,
		SchoolName:     code + " School",
		SchoolIsActive: true,
	}
	require.NoError(t, db.Create(&school).Error)

	hash, err := helper.HashPassword("secret123")
	require.NoError(t, err)
	admin := userModel.UserModel{
		UserName:     code + " Admin",
		UserEmail:    strings.ToLower(code) + "-admin@test.local",
		UserPassword: hash,
		UserRole:     constants.RoleSchoolAdmin,
		UserSchoolID: &school.SchoolID,
		UserIsActive: true,
	}
	require.NoError(t, db.Create(&admin).Error)

	pair, err := authService.GenerateTokenPair(db, &admin)
	require.NoError(t, err)
	return &school, pair.AccessToken
}

func schoolPath(schoolID uuid.UUID, suffix string) string {
	return "/api/v1/schools/" + schoolID.String() + suffix
}

type createTutorResult struct {
	Tutor struct {
		TutorID    uuid.UUID `json:"tutor_id"`
		TutorEmail string    `json:"tutor_email"`
	} `json:"tutor"`
	TemporaryPassword string `json:"temporary_password"`
}

func createTutor(t *testing.T, app *fiber.App, token string, schoolID uuid.UUID, name, email string) createTutorResult {
	t.Helper()
	status, env := doRequest(t, app, http.MethodPost, schoolPath(schoolID, "/tutors"), token, fiber.Map{
		"tutor_name":  name,
		"tutor_email": email,
		"tutor_phone": "555-0101",
	})
	require.Equal(t, http.StatusCreated, status, "create tutor failed: %s", env.Message)
	var out createTutorResult
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestCreateTutorProvisionsUserAccount(t *testing.T) {
	app, db := newTestApp(t)
	school, token := seedSchoolAdmin(t, db, "LIN01")

	out := createTutor(t, app, token, school.SchoolID, "Jane Doe", "jane@lincoln.test")
	assert.Len(t, out.TemporaryPassword, helper.TempPasswordLength)

	var user userModel.UserModel
	require.NoError(t, db.Where("user_email = ?", "jane@lincoln.test").First(&user).Error)
	assert.Equal(t, constants.RoleTeacher, user.UserRole)
	require.NotNil(t, user.UserSchoolID)
	assert.Equal(t, school.SchoolID, *user.UserSchoolID)

	var tutor tutorModel.TutorModel
	require.NoError(t, db.Where("tutor_id = ?", out.Tutor.TutorID).First(&tutor).Error)
	assert.Equal(t, user.UserID, tutor.TutorUserID)

	// The teacher can log in with the temp password right away.
	status, _ := doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": "jane@lincoln.test", "password": out.TemporaryPassword,
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestCreateTutorEmailConflictLeavesNoRows(t *testing.T) {
	app, db := newTestApp(t)
	school, token := seedSchoolAdmin(t, db, "LIN01")
	createTutor(t, app, token, school.SchoolID, "Jane Doe", "jane@lincoln.test")

	status, _ := doRequest(t, app, http.MethodPost, schoolPath(school.SchoolID, "/tutors"), token, fiber.Map{
		"tutor_name":  "Jane Clone",
		"tutor_email": "jane@lincoln.test",
		"tutor_phone": "555-0102",
	})
	assert.Equal(t, http.StatusConflict, status)

	var users, tutors int64
	db.Model(&userModel.UserModel{}).Where("user_email = ?", "jane@lincoln.test").Count(&users)
	db.Model(&tutorModel.TutorModel{}).Where("tutor_email = ?", "jane@lincoln.test").Count(&tutors)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 1, tutors)
}

func TestUpdateTutorMirrorsUserAccount(t *testing.T) {
	app, db := newTestApp(t)
	school, token := seedSchoolAdmin(t, db, "LIN01")
	out := createTutor(t, app, token, school.SchoolID, "Jane Doe", "jane@lincoln.test")

	status, _ := doRequest(t, app, http.MethodPut,
		schoolPath(school.SchoolID, "/tutors/"+out.Tutor.TutorID.String()), token, fiber.Map{
			"tutor_name":      "Jane Smith",
			"tutor_email":     "jane.smith@lincoln.test",
			"tutor_is_active": false,
		})
	require.Equal(t, http.StatusOK, status)

	var tutor tutorModel.TutorModel
	require.NoError(t, db.Where("tutor_id = ?", out.Tutor.TutorID).First(&tutor).Error)
	assert.Equal(t, "Jane Smith", tutor.TutorName)
	assert.False(t, tutor.TutorIsActive)

	var user userModel.UserModel
	require.NoError(t, db.Where("user_id = ?", tutor.TutorUserID).First(&user).Error)
	assert.Equal(t, "Jane Smith", user.UserName)
	assert.Equal(t, "jane.smith@lincoln.test", user.UserEmail)
	assert.False(t, user.UserIsActive)
}

func TestDeleteTutorGuardAndForce(t *testing.T) {
	app, db := newTestApp(t)
	school, token := seedSchoolAdmin(t, db, "LIN01")
	out := createTutor(t, app, token, school.SchoolID, "Jane Doe", "jane@lincoln.test")

	grade := academicsModel.GradeModel{GradeSchoolID: school.SchoolID, GradeName: "Grade 1", GradeOrder: 1}
	require.NoError(t, db.Create(&grade).Error)
	section := academicsModel.SectionModel{
		SectionGradeID: grade.GradeID, SectionSchoolID: school.SchoolID,
		SectionName: "A", SectionClassTutorID: &out.Tutor.TutorID,
	}
	require.NoError(t, db.Create(&section).Error)
	subject := academicsModel.SectionSubjectModel{
		SectionSubjectSectionID: section.SectionID,
		SectionSubjectSchoolID:  school.SchoolID,
		SectionSubjectName:      "Mathematics",
		SectionSubjectIsActive:  true,
	}
	require.NoError(t, db.Create(&subject).Error)
	require.NoError(t, db.Create(&assignmentModel.TutorSubjectAssignmentModel{
		AssignmentSchoolID: school.SchoolID, AssignmentTutorID: out.Tutor.TutorID,
		AssignmentSectionSubjectID: subject.SectionSubjectID, AssignmentIsActive: true,
	}).Error)

	tutorURL := schoolPath(school.SchoolID, "/tutors/"+out.Tutor.TutorID.String())

	status, env := doRequest(t, app, http.MethodDelete, tutorURL, token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "force=true")

	status, _ = doRequest(t, app, http.MethodDelete, tutorURL+"?force=true", token, nil)
	require.Equal(t, http.StatusOK, status)

	var n int64
	db.Model(&tutorModel.TutorModel{}).Where("tutor_id = ?", out.Tutor.TutorID).Count(&n)
	assert.EqualValues(t, 0, n)
	db.Model(&userModel.UserModel{}).Where("user_email = ?", "jane@lincoln.test").Count(&n)
	assert.EqualValues(t, 0, n)
	db.Model(&assignmentModel.TutorSubjectAssignmentModel{}).Where("assignment_tutor_id = ?", out.Tutor.TutorID).Count(&n)
	assert.EqualValues(t, 0, n)

	require.NoError(t, db.Where("section_id = ?", section.SectionID).First(&section).Error)
	assert.Nil(t, section.SectionClassTutorID, "homeroom pointer must be cleared")
}

func TestSchoolScopeIsolation(t *testing.T) {
	app, db := newTestApp(t)
	_, tokenA := seedSchoolAdmin(t, db, "AAA01")
	schoolB, tokenB := seedSchoolAdmin(t, db, "BBB02")
	outB := createTutor(t, app, tokenB, schoolB.SchoolID, "Bob Other", "bob@bbb.test")

	// Admin of A cannot list or touch B's tutors.
	status, _ := doRequest(t, app, http.MethodGet, schoolPath(schoolB.SchoolID, "/tutors"), tokenA, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doRequest(t, app, http.MethodDelete,
		schoolPath(schoolB.SchoolID, "/tutors/"+outB.Tutor.TutorID.String()), tokenA, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestResetTutorPassword(t *testing.T) {
	app, db := newTestApp(t)
	school, token := seedSchoolAdmin(t, db, "LIN01")
	out := createTutor(t, app, token, school.SchoolID, "Jane Doe", "jane@lincoln.test")

	status, env := doRequest(t, app, http.MethodPost,
		schoolPath(school.SchoolID, "/tutors/"+out.Tutor.TutorID.String()+"/reset-password"), token, nil)
	require.Equal(t, http.StatusOK, status)

	var reset struct {
		TemporaryPassword string `json:"temporary_password"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reset))

	status, _ = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": "jane@lincoln.test", "password": reset.TemporaryPassword,
	})
	assert.Equal(t, http.StatusOK, status)
}
