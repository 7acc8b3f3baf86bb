package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/auth"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/db"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTriggerRun(t *testing.T) {
	t.Run("decodes summary", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, triggerPath, r.URL.Path)
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"run_id":"r1","run_date":"2024-01-31","schedules_processed":2,"work_orders_created":1,"failures":[]}`))
		}))
		defer server.Close()

		summary, err := triggerRun(context.Background(), server.Client(), server.URL+"/", "tok")
		require.NoError(t, err)
		assert.True(t, summary.Success)
		assert.Equal(t, "2024-01-31", summary.RunDate)
		assert.Equal(t, 2, summary.SchedulesProcessed)
		assert.Equal(t, 1, summary.WorkOrdersCreated)
	})

	t.Run("run in progress", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"success":false,"error":"scheduler run already in progress"}`))
		}))
		defer server.Close()

		_, err := triggerRun(context.Background(), server.Client(), server.URL, "tok")
		assert.ErrorIs(t, err, scheduling.ErrRunInProgress)
	})

	t.Run("server error carries message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false,"error":"list active schedules: boom"}`))
		}))
		defer server.Close()

		_, err := triggerRun(context.Background(), server.Client(), server.URL, "tok")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
		assert.Contains(t, err.Error(), "list active schedules: boom")
	})

	t.Run("plain text error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
		}))
		defer server.Close()

		_, err := triggerRun(context.Background(), server.Client(), server.URL, "tok")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Insufficient permissions")
	})
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, &scheduling.Summary{Success: true, Failures: []scheduling.Failure{}}))
	assert.Contains(t, buf.String(), `"success": true`)
	assert.Contains(t, buf.String(), `"failures": []`)
}

type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestSeedAdmin(t *testing.T) {
	authService, err := auth.NewService("seed-test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("creates admin with hashed password", func(t *testing.T) {
		users := new(MockUserCollection)
		users.On("FindUserByEmail", mock.Anything, "admin@vivid.test").Return(nil, db.ErrNotFound)
		users.On("InsertUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Role == models.RoleAdmin &&
				u.FullName == "Site Admin" &&
				authService.CheckPassword("correct-horse", u.PasswordHash)
		})).Return("u1", nil)

		id, err := seedAdmin(context.Background(), users, authService, "admin@vivid.test", "correct-horse", "Site Admin")
		require.NoError(t, err)
		assert.Equal(t, "u1", id)
		users.AssertExpectations(t)
	})

	t.Run("existing user", func(t *testing.T) {
		users := new(MockUserCollection)
		users.On("FindUserByEmail", mock.Anything, "admin@vivid.test").Return(&models.User{}, nil)

		_, err := seedAdmin(context.Background(), users, authService, "admin@vivid.test", "correct-horse", "Site Admin")
		assert.ErrorIs(t, err, errUserExists)
		users.AssertNotCalled(t, "InsertUser", mock.Anything, mock.Anything)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := seedAdmin(context.Background(), new(MockUserCollection), authService, "admin@vivid.test", "short", "")
		assert.ErrorIs(t, err, auth.ErrWeakPassword)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := seedAdmin(context.Background(), new(MockUserCollection), authService, "not-an-email", "correct-horse", "")
		assert.ErrorIs(t, err, auth.ErrInvalidEmail)
	})

	t.Run("lookup failure", func(t *testing.T) {
		users := new(MockUserCollection)
		users.On("FindUserByEmail", mock.Anything, "admin@vivid.test").Return(nil, assert.AnError)

		_, err := seedAdmin(context.Background(), users, authService, "admin@vivid.test", "correct-horse", "")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "run", "trigger", "seed-admin"} {
		assert.True(t, names[want], want)
	}
}
