package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/auth"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/db"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/middleware"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/models"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockUserCollection is a mock implementation of UserCollection
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

var _ db.UserCollection = (*MockUserCollection)(nil)

func nullLogger() *log.Entry {
	logger, _ := test.NewNullLogger()
	return log.NewEntry(logger)
}

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	service, err := auth.NewService("handler-test-secret", time.Hour)
	require.NoError(t, err)
	return service
}

func loginRequest(t *testing.T, email, password string) *http.Request {
	t.Helper()
	body, err := json.Marshal(models.LoginRequest{Email: email, Password: password})
	require.NoError(t, err)
	return httptest.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(body))
}

func TestAuthHandler_Login(t *testing.T) {
	authService := newAuthService(t)
	passwordHash, err := authService.HashPassword("password123")
	require.NoError(t, err)

	t.Run("successful login", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, nullLogger())

		user := &models.User{
			ID:           primitive.NewObjectID(),
			Email:        "manager@example.com",
			PasswordHash: passwordHash,
			Role:         models.RoleBuildingManager,
			IsActive:     true,
		}
		users.On("FindUserByEmail", mock.Anything, "manager@example.com").Return(user, nil)
		users.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(nil)

		w := httptest.NewRecorder()
		handler.Login(w, loginRequest(t, " manager@example.com ", "password123"))

		assert.Equal(t, http.StatusOK, w.Code)
		var response models.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, user.Email, response.User.Email)
		assert.NotContains(t, w.Body.String(), passwordHash)

		claims, err := authService.ValidateToken(response.Token)
		require.NoError(t, err)
		assert.Equal(t, models.RoleBuildingManager, claims.Role)
		users.AssertExpectations(t)
	})

	t.Run("last login failure does not block login", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, nullLogger())

		user := &models.User{ID: primitive.NewObjectID(), Email: "a@example.com", PasswordHash: passwordHash, Role: models.RoleAdmin, IsActive: true}
		users.On("FindUserByEmail", mock.Anything, "a@example.com").Return(user, nil)
		users.On("UpdateLastLogin", mock.Anything, user.ID.Hex()).Return(assert.AnError)

		w := httptest.NewRecorder()
		handler.Login(w, loginRequest(t, "a@example.com", "password123"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, nullLogger())
		users.On("FindUserByEmail", mock.Anything, "nobody@example.com").Return(nil, db.ErrNotFound)

		w := httptest.NewRecorder()
		handler.Login(w, loginRequest(t, "nobody@example.com", "password123"))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, nullLogger())
		user := &models.User{ID: primitive.NewObjectID(), Email: "a@example.com", PasswordHash: passwordHash, IsActive: true}
		users.On("FindUserByEmail", mock.Anything, "a@example.com").Return(user, nil)

		w := httptest.NewRecorder()
		handler.Login(w, loginRequest(t, "a@example.com", "wrongpassword"))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		users.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything)
	})

	t.Run("inactive user", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, nullLogger())
		user := &models.User{ID: primitive.NewObjectID(), Email: "a@example.com", PasswordHash: passwordHash, IsActive: false}
		users.On("FindUserByEmail", mock.Anything, "a@example.com").Return(user, nil)

		w := httptest.NewRecorder()
		handler.Login(w, loginRequest(t, "a@example.com", "password123"))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "deactivated")
	})

	t.Run("missing fields", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), nullLogger())
		w := httptest.NewRecorder()
		handler.Login(w, loginRequest(t, "", "password123"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), nullLogger())
		w := httptest.NewRecorder()
		handler.Login(w, httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_GetProfile(t *testing.T) {
	authService := newAuthService(t)

	t.Run("returns current user", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, nullLogger())
		user := &models.User{ID: primitive.NewObjectID(), Email: "a@example.com", FullName: "Alex Chen", Role: models.RoleCommittee}
		users.On("FindUserByID", mock.Anything, user.ID.Hex()).Return(user, nil)

		req := httptest.NewRequest("GET", "/api/auth/profile", nil)
		ctx := context.WithValue(req.Context(), middleware.UserContextKey, &models.Claims{UserID: user.ID.Hex(), Role: user.Role})
		w := httptest.NewRecorder()
		handler.GetProfile(w, req.WithContext(ctx))

		assert.Equal(t, http.StatusOK, w.Code)
		var got models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Alex Chen", got.FullName)
	})

	t.Run("no claims", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection), nullLogger())
		w := httptest.NewRecorder()
		handler.GetProfile(w, httptest.NewRequest("GET", "/api/auth/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("user deleted", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users, nullLogger())
		users.On("FindUserByID", mock.Anything, "gone").Return(nil, db.ErrNotFound)

		req := httptest.NewRequest("GET", "/api/auth/profile", nil)
		ctx := context.WithValue(req.Context(), middleware.UserContextKey, &models.Claims{UserID: "gone"})
		w := httptest.NewRecorder()
		handler.GetProfile(w, req.WithContext(ctx))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	Health(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
