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
	auditModel "schoolku_backend/internals/features/audit/model"
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

func seedSuperadmin(t *testing.T, db *gorm.DB) (*userModel.UserModel, string) {
	t.Helper()
	hash, err := helper.HashPassword("root-secret")
	require.NoError(t, err)
	u := userModel.UserModel{
		UserName:     "Platform Root",
		UserEmail:    "root@platform.test",
		UserPassword: hash,
		UserRole:     constants.RoleSuperadmin,
		UserIsActive: true,
	}
	require.NoError(t, db.Create(&u).Error)
	pair, err := authService.GenerateTokenPair(db, &u)
	require.NoError(t, err)
	return &u, pair.AccessToken
}

type createSchoolResult struct {
	School struct {
		SchoolID   uuid.UUID `json:"school_id"`
		SchoolCode string    `json:"school_code"`
	} `json:"school"`
	Admin struct {
		UserID uuid.UUID `json:"user_id"`
		Email  string    `json:"user_email"`
	} `json:"admin"`
	TemporaryPassword string `json:"temporary_password"`
}

func createSchool(t *testing.T, app *fiber.App, token, code, name, adminEmail string) createSchoolResult {
	t.Helper()
	status, env := doRequest(t, app, http.MethodPost, "/api/v1/superadmin/schools", token, fiber.Map{
		"school_code": code,
		"school_name": name,
		"admin_name":  "Admin of " + name,
		"admin_email": adminEmail,
	})
	require.Equal(t, http.StatusCreated, status, "create school failed: %s", env.Message)
	var out createSchoolResult
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestCreateSchoolProvisionsAdmin(t *testing.T) {
	app, db := newTestApp(t)
	_, token := seedSuperadmin(t, db)

	out := createSchool(t, app, token, "LIN01", "Lincoln Elementary", "admin@lincoln.test")
	assert.Equal(t, "LIN01", out.School.SchoolCode)
	assert.Len(t, out.TemporaryPassword, helper.TempPasswordLength)

	var admin userModel.UserModel
	require.NoError(t, db.Where("user_email = ?", "admin@lincoln.test").First(&admin).Error)
	assert.Equal(t, constants.RoleSchoolAdmin, admin.UserRole)
	require.NotNil(t, admin.UserSchoolID)
	assert.Equal(t, out.School.SchoolID, *admin.UserSchoolID)

	// The temp password is live immediately.
	status, env := doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": "admin@lincoln.test", "password": out.TemporaryPassword,
	})
	assert.Equal(t, http.StatusOK, status, env.Message)

	var n int64
	db.Model(&auditModel.AuditLogModel{}).Where("audit_log_action = ?", "school.create").Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestCreateSchoolDuplicateCode(t *testing.T) {
	app, db := newTestApp(t)
	_, token := seedSuperadmin(t, db)

	createSchool(t, app, token, "LIN01", "Lincoln Elementary", "admin@lincoln.test")

	status, _ := doRequest(t, app, http.MethodPost, "/api/v1/superadmin/schools", token, fiber.Map{
		"school_code": "LIN01",
		"school_name": "Lincoln Copy",
		"admin_name":  "Second Admin",
		"admin_email": "admin2@lincoln.test",
	})
	assert.Equal(t, http.StatusConflict, status)

	var schools, users int64
	db.Model(&schoolModel.SchoolModel{}).Count(&schools)
	db.Model(&userModel.UserModel{}).Where("user_email = ?", "admin2@lincoln.test").Count(&users)
	assert.EqualValues(t, 1, schools)
	assert.EqualValues(t, 0, users, "rejected create must not leave an admin behind")
}

func TestCreateSchoolDuplicateAdminEmail(t *testing.T) {
	app, db := newTestApp(t)
	_, token := seedSuperadmin(t, db)

	createSchool(t, app, token, "LIN01", "Lincoln Elementary", "admin@lincoln.test")

	status, _ := doRequest(t, app, http.MethodPost, "/api/v1/superadmin/schools", token, fiber.Map{
		"school_code": "WAS02",
		"school_name": "Washington Middle",
		"admin_name":  "Other Admin",
		"admin_email": "admin@lincoln.test",
	})
	assert.Equal(t, http.StatusConflict, status)

	var n int64
	db.Model(&schoolModel.SchoolModel{}).Where("school_code = ?", "WAS02").Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestSuperadminRoutesRejectSchoolAdmin(t *testing.T) {
	app, db := newTestApp(t)
	_, rootToken := seedSuperadmin(t, db)
	out := createSchool(t, app, rootToken, "LIN01", "Lincoln Elementary", "admin@lincoln.test")

	status, env := doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": "admin@lincoln.test", "password": out.TemporaryPassword,
	})
	require.Equal(t, http.StatusOK, status)
	var session struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))

	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/superadmin/schools", session.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUpdateSchoolDeactivation(t *testing.T) {
	app, db := newTestApp(t)
	_, token := seedSuperadmin(t, db)
	out := createSchool(t, app, token, "LIN01", "Lincoln Elementary", "admin@lincoln.test")

	status, _ := doRequest(t, app, http.MethodPut, "/api/v1/superadmin/schools/"+out.School.SchoolID.String(), token, fiber.Map{
		"school_is_active": false,
	})
	require.Equal(t, http.StatusOK, status)

	var school schoolModel.SchoolModel
	require.NoError(t, db.Where("school_id = ?", out.School.SchoolID).First(&school).Error)
	assert.False(t, school.SchoolIsActive)

	// Deactivated school locks its users out.
	status, _ = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": "admin@lincoln.test", "password": out.TemporaryPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDeleteSchoolCascades(t *testing.T) {
	app, db := newTestApp(t)
	_, token := seedSuperadmin(t, db)
	out := createSchool(t, app, token, "LIN01", "Lincoln Elementary", "admin@lincoln.test")
	schoolID := out.School.SchoolID

	// Seed a full hierarchy under the school.
	grade := academicsModel.GradeModel{GradeSchoolID: schoolID, GradeName: "Grade 1", GradeOrder: 1}
	require.NoError(t, db.Create(&grade).Error)
	section := academicsModel.SectionModel{SectionGradeID: grade.GradeID, SectionSchoolID: schoolID, SectionName: "A"}
	require.NoError(t, db.Create(&section).Error)
	subject := academicsModel.SectionSubjectModel{
		SectionSubjectSectionID: section.SectionID,
		SectionSubjectSchoolID:  schoolID,
		SectionSubjectName:      "Mathematics",
		SectionSubjectIsActive:  true,
	}
	require.NoError(t, db.Create(&subject).Error)

	teacher := userModel.UserModel{
		UserName: "Jane Doe", UserEmail: "jane@lincoln.test", UserPassword: "x",
		UserRole: constants.RoleTeacher, UserSchoolID: &schoolID, UserIsActive: true,
	}
	require.NoError(t, db.Create(&teacher).Error)
	tutor := tutorModel.TutorModel{
		TutorSchoolID: schoolID, TutorUserID: teacher.UserID,
		TutorName: "Jane Doe", TutorEmail: "jane@lincoln.test", TutorIsActive: true,
	}
	require.NoError(t, db.Create(&tutor).Error)
	assignment := assignmentModel.TutorSubjectAssignmentModel{
		AssignmentSchoolID: schoolID, AssignmentTutorID: tutor.TutorID,
		AssignmentSectionSubjectID: subject.SectionSubjectID, AssignmentIsActive: true,
	}
	require.NoError(t, db.Create(&assignment).Error)

	status, _ := doRequest(t, app, http.MethodDelete, "/api/v1/superadmin/schools/"+schoolID.String(), token, nil)
	require.Equal(t, http.StatusOK, status)

	for name, count := range map[string]int64{
		"schools":     tableCount(db, &schoolModel.SchoolModel{}, "school_id = ?", schoolID),
		"users":       tableCount(db, &userModel.UserModel{}, "user_school_id = ?", schoolID),
		"tutors":      tableCount(db, &tutorModel.TutorModel{}, "tutor_school_id = ?", schoolID),
		"grades":      tableCount(db, &academicsModel.GradeModel{}, "grade_school_id = ?", schoolID),
		"sections":    tableCount(db, &academicsModel.SectionModel{}, "section_school_id = ?", schoolID),
		"subjects":    tableCount(db, &academicsModel.SectionSubjectModel{}, "section_subject_school_id = ?", schoolID),
		"assignments": tableCount(db, &assignmentModel.TutorSubjectAssignmentModel{}, "assignment_school_id = ?", schoolID),
	} {
		assert.EqualValues(t, 0, count, "%s not cascaded", name)
	}
}

func tableCount(db *gorm.DB, model any, query string, args ...any) int64 {
	var n int64
	db.Model(model).Where(query, args...).Count(&n)
	return n
}

func TestResetAdminPassword(t *testing.T) {
	app, db := newTestApp(t)
	_, token := seedSuperadmin(t, db)
	out := createSchool(t, app, token, "LIN01", "Lincoln Elementary", "admin@lincoln.test")

	status, env := doRequest(t, app, http.MethodPost,
		"/api/v1/superadmin/schools/"+out.School.SchoolID.String()+"/reset-admin-password", token, nil)
	require.Equal(t, http.StatusOK, status)

	var reset struct {
		TemporaryPassword string `json:"temporary_password"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reset))
	require.NotEmpty(t, reset.TemporaryPassword)
	assert.NotEqual(t, out.TemporaryPassword, reset.TemporaryPassword)

	status, _ = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": "admin@lincoln.test", "password": out.TemporaryPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": "admin@lincoln.test", "password": reset.TemporaryPassword,
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestSchoolDetailCountsAndFailure(t *testing.T) {
	app, db := newTestApp(t)
	_, token := seedSuperadmin(t, db)
	out := createSchool(t, app, token, "LIN01", "Lincoln Elementary", "admin@lincoln.test")
	detailPath := "/api/v1/superadmin/schools/" + out.School.SchoolID.String()

	status, env := doRequest(t, app, http.MethodGet, detailPath, token, nil)
	require.Equal(t, http.StatusOK, status)

	var detail struct {
		Admin *struct {
			Email string `json:"user_email"`
		} `json:"admin"`
		Counts struct {
			Tutors int64 `json:"tutors"`
			Grades int64 `json:"grades"`
		} `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.NotNil(t, detail.Admin)
	assert.Equal(t, "admin@lincoln.test", detail.Admin.Email)
	assert.EqualValues(t, 0, detail.Counts.Tutors)
	assert.EqualValues(t, 0, detail.Counts.Grades)

	// A failing count query must surface as a 500, not as a silent zero.
	require.NoError(t, db.Migrator().DropTable(&tutorModel.TutorModel{}))
	status, _ = doRequest(t, app, http.MethodGet, detailPath, token, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
}
