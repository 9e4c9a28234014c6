package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gym-targets/internal/api/http/handlers"
	"github.com/spec-kit/gym-targets/internal/auth"
	"github.com/spec-kit/gym-targets/internal/config"
	"github.com/spec-kit/gym-targets/internal/domain"
	"github.com/spec-kit/gym-targets/internal/events"
	"github.com/spec-kit/gym-targets/internal/observability"
	"github.com/spec-kit/gym-targets/internal/repository/memstore"
	"github.com/spec-kit/gym-targets/internal/service"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	app    *fiber.App
	store  *memstore.Store
	tokens *auth.TokenManager

	admin  domain.User
	cgm    domain.User
	hod    domain.User
	branch domain.Branch
	deptA  domain.Department
	deptB  domain.Department
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	authCfg := config.AuthConfig{JWTSecret: "http-test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}
	authService := service.NewAuthService(authCfg, store.Users())

	hash, err := authService.HashPassword("correct horse")
	require.NoError(t, err)

	s := &testServer{store: store, tokens: authService.TokenManager()}
	s.admin = store.AddUser(domain.User{Name: "Ada", Email: "ada@gym.test", PasswordHash: hash, Permissions: []string{domain.PermissionAdmin}, Active: true})
	s.cgm = store.AddUser(domain.User{Name: "Carl", Email: "carl@gym.test", PasswordHash: hash, Permissions: []string{domain.PermissionCGM}, Active: true})
	s.hod = store.AddUser(domain.User{Name: "Hal", Email: "hal@gym.test", PasswordHash: hash, Permissions: []string{domain.PermissionHOD}, Active: true})
	s.deptA = store.AddDepartment(domain.Department{Name: "Personal Training", IsActive: true})
	s.deptB = store.AddDepartment(domain.Department{Name: "Group Classes", IsActive: true})
	s.branch = store.AddBranch(domain.Branch{Name: "Downtown"}, s.deptA.ID, s.deptB.ID)

	dispatcher := events.NewInMemoryDispatcher(nil)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	targets := service.NewTargetService(service.TargetDependencies{
		TargetRepo:           store.Targets(),
		DepartmentTargetRepo: store.DepartmentTargets(),
		TrainerTargetRepo:    store.TrainerTargets(),
		UserRepo:             store.Users(),
		BranchRepo:           store.Branches(),
		DepartmentRepo:       store.Departments(),
		Transactor:           store,
		Dispatcher:           dispatcher,
		Metrics:              metrics,
	})
	trainers := service.NewTrainerTargetService(service.TrainerTargetDependencies{
		DepartmentTargetRepo: store.DepartmentTargets(),
		TrainerTargetRepo:    store.TrainerTargets(),
		Dispatcher:           dispatcher,
		Metrics:              metrics,
	})

	ok := pingFunc(func(context.Context) error { return nil })
	s.app = NewServer(ServerConfig{AppName: "gym-targets-test", Metrics: metrics}, RouteConfig{
		Health: handlers.NewHealthHandler("gym-targets", "test", map[string]handlers.Pinger{
			"postgres": ok,
			"redis":    pingFunc(func(context.Context) error { return errors.New("redis down") }),
		}),
		Auth:           handlers.NewAuthHandler(authService),
		Targets:        handlers.NewTargetsHandler(targets),
		TrainerTargets: handlers.NewTrainerTargetsHandler(trainers),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users()),
	})
	return s
}

func (s *testServer) token(t *testing.T, user domain.User) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(user.ID, user.Permissions)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func (s *testServer) createBody() map[string]any {
	return map[string]any{
		"branchId":          s.branch.ID,
		"targetValue":       "1000",
		"startDate":         "2026-04-01",
		"endDate":           "2026-06-30",
		"cgmApproverUserId": s.cgm.ID,
		"departmentTargets": []map[string]any{
			{"departmentId": s.deptA.ID, "targetValue": "600"},
			{"departmentId": s.deptB.ID, "targetValue": "400"},
		},
	}
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	envelope, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %v", body)
	return envelope["code"].(string)
}

func TestServer_LoginIssuesUsableToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodPost, "/auth/login", "", map[string]any{"email": "carl@gym.test", "password": "correct horse"})
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	require.Equal(t, []any{domain.PermissionCGM}, data["permissions"])
	token := data["accessToken"].(string)

	status, body = s.do(t, fiber.MethodGet, "/targets", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Empty(t, body["data"])

	status, body = s.do(t, fiber.MethodPost, "/auth/login", "", map[string]any{"email": "carl@gym.test", "password": "wrong"})
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestServer_RejectsMissingOrBadToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodGet, "/targets", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, body))

	status, _ = s.do(t, fiber.MethodGet, "/targets", "not-a-jwt", nil)
	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestServer_TargetWorkflow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	adminToken, cgmToken, hodToken := s.token(t, s.admin), s.token(t, s.cgm), s.token(t, s.hod)

	status, body := s.do(t, fiber.MethodPost, "/targets", cgmToken, s.createBody())
	require.Equal(t, fiber.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", errorCode(t, body))

	status, body = s.do(t, fiber.MethodPost, "/targets", adminToken, s.createBody())
	require.Equal(t, fiber.StatusCreated, status)
	data := body["data"].(map[string]any)
	require.EqualValues(t, 2, data["departmentTargetsCreated"])
	target := data["target"].(map[string]any)
	targetID := target["id"].(string)
	require.EqualValues(t, 0, target["status"])
	require.Equal(t, "2026-04-01", target["startDate"])

	status, body = s.do(t, fiber.MethodGet, "/targets/"+targetID, cgmToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	got := body["data"].(map[string]any)
	require.Len(t, got["departmentTargets"], 2)
	require.Equal(t, "Carl", got["approver"].(map[string]any)["name"])
	require.Equal(t, "Downtown", got["branch"].(map[string]any)["name"])

	status, body = s.do(t, fiber.MethodPatch, "/targets/"+targetID+"/status", cgmToken, map[string]any{"status": 3})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(t, body))

	status, _ = s.do(t, fiber.MethodPatch, "/targets/"+targetID+"/status", hodToken, map[string]any{"status": 1})
	require.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, fiber.MethodPatch, "/targets/"+targetID+"/status", cgmToken, map[string]any{"status": 2, "changeRequestReason": "more group classes"})
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, service.MessageTargetChangeRequested, body["message"])
	require.EqualValues(t, 2, body["data"].(map[string]any)["status"])

	status, body = s.do(t, fiber.MethodPatch, "/targets/"+targetID, adminToken, map[string]any{"status": 1})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(t, body))

	status, body = s.do(t, fiber.MethodPatch, "/targets/"+targetID, adminToken, map[string]any{
		"departmentTargets": []map[string]any{{"departmentId": s.deptB.ID, "targetValue": "1000"}},
	})
	require.Equal(t, fiber.StatusOK, status)
	updated := body["data"].(map[string]any)
	require.EqualValues(t, 1, updated["updated"])
	require.EqualValues(t, 1, updated["removed"])
	require.Len(t, updated["target"].(map[string]any)["departmentTargets"], 1)

	status, body = s.do(t, fiber.MethodGet, "/targets?status=2", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body["data"], 1)

	status, _ = s.do(t, fiber.MethodDelete, "/targets/"+targetID, adminToken, nil)
	require.Equal(t, fiber.StatusNoContent, status)

	status, body = s.do(t, fiber.MethodGet, "/targets/"+targetID, adminToken, nil)
	require.Equal(t, fiber.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestServer_AssignReportsPartialFailure(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	adminToken, hodToken := s.token(t, s.admin), s.token(t, s.hod)

	status, body := s.do(t, fiber.MethodPost, "/targets", adminToken, s.createBody())
	require.Equal(t, fiber.StatusCreated, status)
	dt := body["data"].(map[string]any)["target"].(map[string]any)["departmentTargets"].([]any)[0].(map[string]any)
	dtID := dt["id"].(string)

	s.store.FailOn(memstore.OpTrainerTargetCreate, 2, &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "trainer_targets_kpi_id_fkey"})
	status, body = s.do(t, fiber.MethodPost, "/trainer-targets/assign", hodToken, map[string]any{
		"departmentTargetId": dtID,
		"trainerKpiTargets": []map[string]any{{
			"trainerId": s.hod.ID,
			"kpiTargets": []map[string]any{
				{"kpiId": uuid.NewString(), "targetValue": 10},
				{"kpiId": uuid.NewString(), "targetValue": 20},
				{"kpiId": uuid.NewString(), "targetValue": 30},
			},
		}},
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	envelope := body["error"].(map[string]any)
	require.Equal(t, "INVALID_REFERENCE", envelope["code"])
	details := envelope["details"].(map[string]any)
	require.Equal(t, "trainer_targets_kpi_id_fkey", details["constraint"])
	result := details["result"].(map[string]any)
	require.EqualValues(t, 1, result["count"])
	items := result["items"].([]any)
	require.Len(t, items, 3)
	require.Equal(t, "created", items[0].(map[string]any)["outcome"])
	require.Equal(t, true, items[0].(map[string]any)["created"])
	require.Equal(t, "failed", items[1].(map[string]any)["outcome"])
	require.Equal(t, "skipped", items[2].(map[string]any)["outcome"])

	status, body = s.do(t, fiber.MethodGet, "/department-target/"+dtID, hodToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body["data"].(map[string]any)["trainerTargets"], 1)
}

func TestServer_HealthAndUnknownRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	status, body := s.do(t, fiber.MethodGet, "/health/live", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "alive", body["status"])

	status, body = s.do(t, fiber.MethodGet, "/health/ready", "", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, status)
	require.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(t, body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	require.Equal(t, "ok", details["postgres"])
	require.Equal(t, "redis down", details["redis"])

	status, body = s.do(t, fiber.MethodGet, "/nope", s.token(t, s.admin), nil)
	require.Equal(t, fiber.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestServer_AnswersCORSPreflightWithoutToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	req := httptest.NewRequest(fiber.MethodOptions, "/targets", nil)
	req.Header.Set("Origin", "https://dashboard.gym.test")
	req.Header.Set("Access-Control-Request-Method", fiber.MethodPost)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestServer_ListTargetsReportsPaging(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	adminToken := s.token(t, s.admin)
	for i := 0; i < 3; i++ {
		status, _ := s.do(t, fiber.MethodPost, "/targets", adminToken, s.createBody())
		require.Equal(t, fiber.StatusCreated, status)
	}

	status, body := s.do(t, fiber.MethodGet, "/targets?pageSize=2", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body["data"], 2)
	require.Equal(t, map[string]any{"page": float64(1), "pageSize": float64(2), "hasMore": true}, body["meta"])

	status, body = s.do(t, fiber.MethodGet, "/targets?pageSize=2&page=2", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, body["data"], 1)
	require.Equal(t, false, body["meta"].(map[string]any)["hasMore"])

	status, body = s.do(t, fiber.MethodGet, "/targets?pageSize=1000", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	require.EqualValues(t, 200, body["meta"].(map[string]any)["pageSize"])
}
