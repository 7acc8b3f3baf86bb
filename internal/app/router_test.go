package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/auth"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/db"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/scheduling"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubJob struct {
	calls atomic.Int32
}

func (j *stubJob) Run(context.Context) (*scheduling.Summary, error) {
	j.calls.Add(1)
	return &scheduling.Summary{Success: true, RunID: "r1"}, nil
}

type stubSchedules struct {
	db.ScheduleCollection
}

func (stubSchedules) FindSchedules(context.Context, db.ScheduleFilter) ([]models.MaintenanceSchedule, error) {
	return []models.MaintenanceSchedule{}, nil
}

type stubUsers struct {
	db.UserCollection
}

func (stubUsers) FindUserByEmail(context.Context, string) (*models.User, error) {
	return nil, db.ErrNotFound
}

func newTestRouter(t *testing.T) (http.Handler, *auth.Service, *stubJob) {
	t.Helper()
	authService, err := auth.NewService("router-test-secret", time.Hour)
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	job := &stubJob{}
	router := NewRouter(RouterDeps{
		Auth:      authService,
		Users:     stubUsers{},
		Schedules: stubSchedules{},
		Job:       job,
		Logger:    log.NewEntry(logger),
	})
	return router, authService, job
}

func bearer(t *testing.T, service *auth.Service, role models.Role) string {
	t.Helper()
	token, err := service.GenerateToken(&models.User{ID: primitive.NewObjectID(), Email: "u@example.com", Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouterRequiresToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/schedules", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterTriggerPermissions(t *testing.T) {
	router, service, job := newTestRouter(t)

	req := httptest.NewRequest("POST", "/api/functions/autoGenerateWorkOrders", nil)
	req.Header.Set("Authorization", bearer(t, service, models.RoleResident))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, int32(0), job.calls.Load())

	req = httptest.NewRequest("POST", "/api/functions/autoGenerateWorkOrders", nil)
	req.Header.Set("Authorization", bearer(t, service, models.RoleAdmin))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), job.calls.Load())
	assert.Contains(t, w.Body.String(), `"run_id":"r1"`)
}

func TestRouterSchedulesForCommittee(t *testing.T) {
	router, service, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/schedules", nil)
	req.Header.Set("Authorization", bearer(t, service, models.RoleCommittee))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("POST", "/api/schedules/abc/deactivate", nil)
	req.Header.Set("Authorization", bearer(t, service, models.RoleCommittee))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouterLoginIsRateLimited(t *testing.T) {
	router, _, _ := newTestRouter(t)

	codes := map[int]int{}
	for i := 0; i < 12; i++ {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes[w.Code]++
	}
	assert.Equal(t, 10, codes[http.StatusBadRequest], "empty bodies are rejected once admitted")
	assert.Equal(t, 2, codes[http.StatusTooManyRequests])
}
