package controller_test

import (
	"bytes"
	"context"
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
	Code       int             `json:"code"`
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
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

func seedSuperadmin(t *testing.T, db *gorm.DB) string {
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
	return pair.AccessToken
}

// Walks the whole provisioning flow the way a fresh deployment would:
// superadmin creates the school, its admin builds out grades and staff, then
// the dashboard and audit trail reflect every step.
func TestProvisioningFlowEndToEnd(t *testing.T) {
	app, db := newTestApp(t)
	rootToken := seedSuperadmin(t, db)

	// Superadmin provisions Lincoln Elementary.
	status, env := doRequest(t, app, http.MethodPost, "/api/v1/superadmin/schools", rootToken, fiber.Map{
		"school_code": "LIN01",
		"school_name": "Lincoln Elementary",
		"admin_name":  "Pat Principal",
		"admin_email": "principal@lincoln.test",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created struct {
		School struct {
			SchoolID uuid.UUID `json:"school_id"`
		} `json:"school"`
		TemporaryPassword string `json:"temporary_password"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	schoolID := created.School.SchoolID
	base := "/api/v1/schools/" + schoolID.String()

	// The admin signs in with the issued credentials.
	status, env = doRequest(t, app, http.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"email": "principal@lincoln.test", "password": created.TemporaryPassword,
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var session struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	token := session.AccessToken

	// Academic structure: Grade 1 with two sections.
	status, _ = doRequest(t, app, http.MethodPost, base+"/grades", token, fiber.Map{
		"grade_name": "Grade 1",
		"sections": []fiber.Map{
			{"section_name": "A", "subjects": []string{"Mathematics", "Science"}},
			{"section_name": "B", "subjects": []string{"Mathematics"}},
		},
	})
	require.Equal(t, http.StatusCreated, status)

	// One tutor, smart-assigned to section A plus the homeroom.
	status, env = doRequest(t, app, http.MethodPost, base+"/tutors", token, fiber.Map{
		"tutor_name": "Jane Doe", "tutor_email": "jane@lincoln.test", "tutor_phone": "555-0101",
	})
	require.Equal(t, http.StatusCreated, status)
	var tutorOut struct {
		Tutor struct {
			TutorID uuid.UUID `json:"tutor_id"`
		} `json:"tutor"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tutorOut))

	status, env = doRequest(t, app, http.MethodPost, base+"/assignments", token, fiber.Map{
		"tutor_id":      tutorOut.Tutor.TutorID,
		"assignments":   map[string][]string{"Grade 1-A": {"Mathematics", "Science"}},
		"class_grade":   "Grade 1",
		"class_section": "A",
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	// Dashboard reflects all of it.
	status, env = doRequest(t, app, http.MethodGet, base+"/dashboard", token, nil)
	require.Equal(t, http.StatusOK, status)
	var dash struct {
		ActiveTutors         int64 `json:"active_tutors"`
		Grades               int64 `json:"grades"`
		Sections             int64 `json:"sections"`
		ActiveSubjects       int64 `json:"active_subjects"`
		ActiveAssignments    int64 `json:"active_assignments"`
		SectionsWithoutTutor int64 `json:"sections_without_class_tutor"`
		RecentActivity       []struct {
			Action string `json:"audit_log_action"`
		} `json:"recent_activity"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &dash))
	assert.EqualValues(t, 1, dash.ActiveTutors)
	assert.EqualValues(t, 1, dash.Grades)
	assert.EqualValues(t, 2, dash.Sections)
	assert.EqualValues(t, 3, dash.ActiveSubjects)
	assert.EqualValues(t, 2, dash.ActiveAssignments)
	assert.EqualValues(t, 1, dash.SectionsWithoutTutor, "section B has no homeroom yet")
	assert.NotEmpty(t, dash.RecentActivity)

	// The audit trail has one entry per mutating step.
	status, env = doRequest(t, app, http.MethodGet, base+"/audit-logs", token, nil)
	require.Equal(t, http.StatusOK, status)
	var logs []struct {
		Action string `json:"audit_log_action"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	actions := make(map[string]bool, len(logs))
	for _, l := range logs {
		actions[l.Action] = true
	}
	for _, want := range []string{"school.create", "grade.create", "tutor.create", "assignment.smart_assign"} {
		assert.True(t, actions[want], "missing audit action %s", want)
	}

	// Superadmin sees the same entries platform-wide, filterable by action.
	status, env = doRequest(t, app, http.MethodGet,
		"/api/v1/superadmin/audit-logs?action=school.create", rootToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	require.Len(t, logs, 1)
	assert.NotNil(t, env.Pagination)
}

func TestDashboardRequiresSchoolRole(t *testing.T) {
	app, db := newTestApp(t)
	rootToken := seedSuperadmin(t, db)

	status, env := doRequest(t, app, http.MethodPost, "/api/v1/superadmin/schools", rootToken, fiber.Map{
		"school_code": "LIN01",
		"school_name": "Lincoln Elementary",
		"admin_name":  "Pat Principal",
		"admin_email": "principal@lincoln.test",
	})
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		School struct {
			SchoolID uuid.UUID `json:"school_id"`
		} `json:"school"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	// No token at all.
	status, _ = doRequest(t, app, http.MethodGet,
		"/api/v1/schools/"+created.School.SchoolID.String()+"/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Superadmin may look into any school.
	status, _ = doRequest(t, app, http.MethodGet,
		"/api/v1/schools/"+created.School.SchoolID.String()+"/dashboard", rootToken, nil)
	assert.Equal(t, http.StatusOK, status)
}

// Controllers run their queries under the request-scoped context, so a
// canceled (or timed out) request must abort instead of querying on.
func TestDashboardAbortsOnCanceledRequestContext(t *testing.T) {
	app, db := newTestApp(t)
	rootToken := seedSuperadmin(t, db)

	status, env := doRequest(t, app, http.MethodPost, "/api/v1/superadmin/schools", rootToken, fiber.Map{
		"school_code": "LIN01",
		"school_name": "Lincoln Elementary",
		"admin_name":  "Pat Principal",
		"admin_email": "principal@lincoln.test",
	})
	require.Equal(t, http.StatusCreated, status)
	var created struct {
		School struct {
			SchoolID uuid.UUID `json:"school_id"`
		} `json:"school"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	dead := fiber.New(fiber.Config{ErrorHandler: helper.FiberErrorHandler})
	dead.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})
	routes.SetupRoutes(dead, db)

	status, _ = doRequest(t, dead, http.MethodGet,
		"/api/v1/schools/"+created.School.SchoolID.String()+"/dashboard", rootToken, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
}
