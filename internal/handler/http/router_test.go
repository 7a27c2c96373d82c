package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	notificationdomain "github.com/cmlabs-hris/attendance-engine/internal/domain/notification"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine/internal/service/approval"
	attendancesvc "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	employeesvc "github.com/cmlabs-hris/attendance-engine/internal/service/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/service/notification"
	settingssvc "github.com/cmlabs-hris/attendance-engine/internal/service/settings"
)

const handlerTestSecret = "test-secret-key-for-jwt"

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Error   *response.ErrorDetail `json:"error"`
	Meta    *response.Meta        `json:"meta"`
}

type testServer struct {
	router *chi.Mux
	jwt    jwt.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	hub := sse.NewHub()
	broadcaster := notification.NewBroadcaster(hub, notification.Config{})
	t.Cleanup(broadcaster.Close)

	settingsService := settingssvc.NewSettingsService(memory.NewSettingsRepository(), broadcaster)
	require.NoError(t, settingsService.Load(ctx, settings.DefaultAppSettings()))

	employeeRepo := memory.NewEmployeeRepository()
	for _, id := range []string{"emp-1", "emp-2"} {
		_, err := employeeRepo.Create(ctx, employee.Employee{ID: id, FullName: id, Email: id + "@example.com", IsActive: true})
		require.NoError(t, err)
	}

	attendanceService := attendancesvc.NewAttendanceService(
		memory.NewAttendanceRepository(), employeeRepo, settingsService, broadcaster, attendancesvc.Options{}, nil,
	)
	deps := approval.Deps{
		Requests:    memory.NewRequestRepository(),
		Employees:   employeeRepo,
		Settings:    settingsService,
		Sessions:    attendanceService,
		Broadcaster: broadcaster,
	}

	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")
	router := NewRouter(RouterOptions{AppName: "attendance-engine-test", AllowedOrigins: []string{"*"}}, jwtService, settingsService, Handlers{
		Event:      NewEventHandler(attendanceService),
		Attendance: NewAttendanceHandler(attendanceService),
		Request:    NewRequestHandler(approval.NewBreakWorkflow(deps), approval.NewClockOutWorkflow(deps)),
		Settings:   NewSettingsHandler(settingsService),
		Employee:   NewEmployeeHandler(employeesvc.NewEmployeeService(employeeRepo, settingsService)),
		Stream:     NewStreamHandler(hub, jwtService),
	})

	return &testServer{router: router, jwt: jwtService}
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken("admin-1", nil, jwt.RoleAdmin)
	require.NoError(t, err)
	return token
}

func (s *testServer) employeeToken(t *testing.T, employeeID string) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken("user-"+employeeID, &employeeID, jwt.RoleEmployee)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func clockIn(employeeID, ts string) map[string]interface{} {
	return map[string]interface{}{
		"employeeId": employeeID,
		"kind":       string(attendance.KindClockIn),
		"timestamp":  ts,
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/events", "", clockIn("emp-1", "2025-01-06T09:00:00Z"))

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
}

func TestIngest_EmployeeOwnEvent(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/events", s.employeeToken(t, "emp-1"), clockIn("emp-1", "2025-01-06T09:00:00Z"))
	require.Equal(t, http.StatusOK, code)

	var record attendance.DailyRecord
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, "emp-1", record.EmployeeID)
	assert.Equal(t, "2025-01-06", record.Date)
	assert.Equal(t, attendance.StatusPresent, record.Status)
}

func TestIngest_BlankEmployeeDefaultsToCaller(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/events", s.employeeToken(t, "emp-2"), clockIn("", "2025-01-06T09:00:00Z"))
	require.Equal(t, http.StatusOK, code)

	var record attendance.DailyRecord
	require.NoError(t, json.Unmarshal(env.Data, &record))
	assert.Equal(t, "emp-2", record.EmployeeID)
}

func TestIngest_OtherEmployeeForbidden(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/events", s.employeeToken(t, "emp-1"), clockIn("emp-2", "2025-01-06T09:00:00Z"))

	assert.Equal(t, http.StatusForbidden, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestIngest_RejectedEventIsUnprocessable(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/events", s.adminToken(t), map[string]interface{}{
		"employeeId": "emp-1",
		"kind":       "Teleport",
		"timestamp":  "2025-01-06T09:00:00Z",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestIngestBatch_ReturnsCounts(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/events/batch", s.adminToken(t), map[string]interface{}{
		"events": []map[string]interface{}{
			clockIn("emp-1", "2025-01-06T09:00:00Z"),
			clockIn("emp-1", "2025-01-06T09:00:00Z"),
			clockIn("emp-2", "2025-01-06T09:30:00Z"),
			clockIn("ghost", "2025-01-06T09:30:00Z"),
		},
	})
	require.Equal(t, http.StatusOK, code)

	var result attendance.IngestResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 1, result.Duplicates)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 3, result.Rejected[0].Index)
}

func TestAttendance_InvalidWindow(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodGet, "/api/v1/attendance/fortnight", s.adminToken(t), nil)

	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAttendance_RangeIsScopedToCaller(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)

	for _, id := range []string{"emp-1", "emp-2"} {
		code, _ := s.do(t, http.MethodPost, "/api/v1/events", admin, clockIn(id, "2025-01-06T09:00:00Z"))
		require.Equal(t, http.StatusOK, code)
	}

	code, env := s.do(t, http.MethodGet, "/api/v1/attendance?startDate=2025-01-01&endDate=2025-01-31", s.employeeToken(t, "emp-1"), nil)
	require.Equal(t, http.StatusOK, code)

	var result attendance.RangeResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Records, 1)
	assert.Equal(t, "emp-1", result.Records[0].EmployeeID)

	code, _ = s.do(t, http.MethodGet, "/api/v1/attendance?startDate=2025-01-01&endDate=2025-01-31&employeeId=emp-2", s.employeeToken(t, "emp-1"), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAttendance_Timeline(t *testing.T) {
	s := newTestServer(t)
	token := s.employeeToken(t, "emp-1")

	s.do(t, http.MethodPost, "/api/v1/events", token, clockIn("emp-1", "2025-01-06T09:00:00Z"))
	s.do(t, http.MethodPost, "/api/v1/events", token, map[string]interface{}{
		"employeeId": "emp-1",
		"kind":       string(attendance.KindClockOut),
		"timestamp":  "2025-01-06T17:00:00Z",
	})

	code, env := s.do(t, http.MethodGet, "/api/v1/attendance/employees/emp-1/2025-01-06/timeline", token, nil)
	require.Equal(t, http.StatusOK, code)

	var timeline []attendance.TimelineEntry
	require.NoError(t, json.Unmarshal(env.Data, &timeline))
	assert.Len(t, timeline, 2)
}

func TestRequests_ClockOutApprovalFlow(t *testing.T) {
	s := newTestServer(t)
	employeeToken := s.employeeToken(t, "emp-1")

	code, _ := s.do(t, http.MethodPost, "/api/v1/requests/clock-outs", employeeToken, map[string]interface{}{"reason": "doctor"})
	assert.Equal(t, http.StatusConflict, code, "not clocked in yet")

	code, _ = s.do(t, http.MethodPost, "/api/v1/events", employeeToken, clockIn("emp-1", "2025-01-06T09:00:00Z"))
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/requests/clock-outs", employeeToken, map[string]interface{}{"reason": "doctor"})
	require.Equal(t, http.StatusCreated, code)
	var submitted request.Request
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.Equal(t, request.StatusPending, submitted.Status)
	assert.Equal(t, "emp-1", submitted.EmployeeID)

	processPath := "/api/v1/requests/clock-outs/" + submitted.ID + "/process"
	code, _ = s.do(t, http.MethodPost, processPath, employeeToken, map[string]interface{}{"decision": "approved"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/requests/breaks/"+submitted.ID+"/process", s.adminToken(t), map[string]interface{}{"decision": "approved"})
	assert.Equal(t, http.StatusNotFound, code, "request of the other kind")

	code, env = s.do(t, http.MethodPost, processPath, s.adminToken(t), map[string]interface{}{"decision": "approved"})
	require.Equal(t, http.StatusOK, code)
	var processed request.Request
	require.NoError(t, json.Unmarshal(env.Data, &processed))
	assert.Equal(t, request.StatusApproved, processed.Status)
	require.NotNil(t, processed.ProcessedBy)
	assert.Equal(t, "admin-1", *processed.ProcessedBy)

	code, env = s.do(t, http.MethodGet, "/api/v1/attendance/employees/emp-1/2025-01-06", employeeToken, nil)
	require.Equal(t, http.StatusOK, code)
	var record attendance.DailyRecord
	require.NoError(t, json.Unmarshal(env.Data, &record))
	_, open := record.OpenSession()
	assert.False(t, open)

	code, _ = s.do(t, http.MethodPost, processPath, s.adminToken(t), map[string]interface{}{"decision": "rejected"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestRequests_DuplicatePendingBreak(t *testing.T) {
	s := newTestServer(t)
	token := s.employeeToken(t, "emp-1")

	code, _ := s.do(t, http.MethodPost, "/api/v1/requests/breaks", token, map[string]interface{}{"reason": "coffee"})
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/requests/breaks", token, map[string]interface{}{"reason": "coffee again"})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/api/v1/requests/breaks", s.employeeToken(t, "emp-2"), nil)
	require.Equal(t, http.StatusOK, code)
	var list request.ListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list.Requests)
}

func TestRequests_UnknownKind(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodGet, "/api/v1/requests/vacations", s.adminToken(t), nil)

	assert.Equal(t, http.StatusNotFound, code)
}

func TestMaintenance_BlocksRequestsButNotIngestion(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	employeeToken := s.employeeToken(t, "emp-1")

	code, _ := s.do(t, http.MethodPut, "/api/v1/settings", employeeToken, map[string]interface{}{"maintenanceMode": true})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPut, "/api/v1/settings", admin, map[string]interface{}{"maintenanceMode": true})
	require.Equal(t, http.StatusOK, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/requests/breaks", employeeToken, map[string]interface{}{"reason": "coffee"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Error.Code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/requests/breaks", employeeToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/events", employeeToken, clockIn("emp-1", "2025-01-06T09:00:00Z"))
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPut, "/api/v1/settings", admin, map[string]interface{}{"maintenanceMode": false})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/requests/breaks", employeeToken, map[string]interface{}{"reason": "coffee"})
	assert.Equal(t, http.StatusCreated, code)
}

func TestSettings_InvalidUpdate(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPut, "/api/v1/settings", s.adminToken(t), map[string]interface{}{"standardClockInTime": "9am"})

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "standardClockInTime")
}

func TestEmployees_AdminOnly(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodGet, "/api/v1/employees", s.employeeToken(t, "emp-1"), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := s.do(t, http.MethodPost, "/api/v1/employees", s.adminToken(t), map[string]interface{}{
		"fullName": "Dewi Lestari",
		"email":    "dewi@example.com",
	})
	require.Equal(t, http.StatusCreated, code)
	var created employee.Employee
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotEmpty(t, created.ID)

	code, env = s.do(t, http.MethodGet, "/api/v1/employees", s.adminToken(t), nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(3), env.Meta.TotalItems)
}

func TestStream_DeliversEmployeeEvents(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.router)
	defer server.Close()

	employeeToken := s.employeeToken(t, "emp-1")
	code, env := s.do(t, http.MethodPost, "/api/v1/stream/token", employeeToken, nil)
	require.Equal(t, http.StatusOK, code)
	var issued SSETokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &issued))
	assert.Equal(t, notification.EmployeeTopic("emp-1"), issued.Topic)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/stream?token="+issued.Token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: connected", lines.Text())

	code, _ = s.do(t, http.MethodPost, "/api/v1/events", employeeToken, clockIn("emp-1", "2025-01-06T09:00:00Z"))
	require.Equal(t, http.StatusOK, code)

	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "event: "+notificationdomain.EventClockedIn) {
			return
		}
	}
	t.Fatalf("clock-in event not received: %v", lines.Err())
}

func TestStream_RejectsAccessToken(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stream?token="+s.adminToken(t), nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
