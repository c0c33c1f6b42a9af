package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

func fixedNow() time.Time {
	return time.Date(2025, time.August, 28, 12, 0, 0, 0, time.UTC)
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeTasks(t *testing.T, rec *httptest.ResponseRecorder) []model.Task {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	return tasks
}

func TestCreateAssignsIncreasingIDs(t *testing.T) {
	h := New(WithClock(fixedNow)).Handler()

	first := do(t, h, http.MethodPost, "/tasks", `{"title":"Buy milk","priority":"high"}`)
	require.Equal(t, http.StatusCreated, first.Code)
	second := do(t, h, http.MethodPost, "/tasks", `{"title":"Walk dog","dueDate":"2025-09-01"}`)
	require.Equal(t, http.StatusCreated, second.Code)

	var a, b model.Task
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	require.Equal(t, model.ID("1"), a.ID)
	require.Equal(t, model.ID("2"), b.ID)
	require.Equal(t, model.PriorityHigh, a.Priority)
	require.Equal(t, "2025-09-01", b.DueDate.String())
	require.False(t, b.CreatedAt.IsZero())
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	h := New().Handler()
	rec := do(t, h, http.MethodPost, "/tasks", `{"title":"ab"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Fields, "title")

	rec = do(t, h, http.MethodPost, "/tasks", `{"title":"Valid","dueDate":"tomorrow"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "dueDate")
}

func TestToggleUsesPreviousState(t *testing.T) {
	h := New(WithTasks(model.Task{Title: "Stretch"})).Handler()

	rec := do(t, h, http.MethodPut, "/tasks/1/toggle", `{"previousCompleted":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"completed":true`)

	// Repeating the same transition is idempotent.
	rec = do(t, h, http.MethodPut, "/tasks/1/toggle", `{"previousCompleted":false}`)
	require.Contains(t, rec.Body.String(), `"status":"completed"`)

	rec = do(t, h, http.MethodPut, "/tasks/1/toggle", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusUpcomingAndOverdueRoutes(t *testing.T) {
	yesterday := model.Today(fixedNow()).AddDays(-1)
	soon := model.Today(fixedNow()).AddDays(3)
	later := model.Today(fixedNow()).AddDays(30)
	h := New(WithClock(fixedNow), WithTasks(
		model.Task{Title: "Late", DueDate: &yesterday},
		model.Task{Title: "Soon", DueDate: &soon},
		model.Task{Title: "Later", DueDate: &later},
		model.Task{Title: "Done", Completed: true},
	)).Handler()

	pending := decodeTasks(t, do(t, h, http.MethodGet, "/tasks?status=pending", ""))
	require.Len(t, pending, 3)
	completed := decodeTasks(t, do(t, h, http.MethodGet, "/tasks?status=completed", ""))
	require.Len(t, completed, 1)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/tasks?status=archived", "").Code)

	upcoming := decodeTasks(t, do(t, h, http.MethodGet, "/tasks/upcoming", ""))
	require.Len(t, upcoming, 1)
	require.Equal(t, "Soon", upcoming[0].Title)

	overdue := decodeTasks(t, do(t, h, http.MethodGet, "/tasks/overdue", ""))
	require.Len(t, overdue, 1)
	require.Equal(t, "Late", overdue[0].Title)
}

func TestUpdateDeleteAndNotFound(t *testing.T) {
	h := New(WithTasks(model.Task{Title: "Original"})).Handler()

	rec := do(t, h, http.MethodPut, "/tasks/1", `{"title":"Renamed","priority":"low","completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := do(t, h, http.MethodGet, "/tasks/1", "")
	require.Contains(t, got.Body.String(), `"title":"Renamed"`)
	require.Contains(t, got.Body.String(), `"priority":"low"`)

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/tasks/1", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/tasks/1", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/tasks/1", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/tasks/9", `{"title":"Nobody"}`).Code)
}

func TestBearerAuth(t *testing.T) {
	secret := "test-secret"
	h := New(WithJWTSecret(secret)).Handler()

	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/tasks", "").Code)
	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/tasks", "", "Authorization", "Bearer nope").Code)

	token, err := IssueToken([]byte(secret), "user-1", time.Hour)
	require.NoError(t, err)
	rec := do(t, h, http.MethodGet, "/tasks", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)

	expired, err := IssueToken([]byte(secret), "user-1", -time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/tasks", "", "Authorization", "Bearer "+expired).Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := New().Handler()
	rec := do(t, h, http.MethodGet, "/tasks", "", "X-Request-ID", "abc-123")
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	require.NotEmpty(t, do(t, h, http.MethodGet, "/tasks", "").Header().Get("X-Request-ID"))
}
