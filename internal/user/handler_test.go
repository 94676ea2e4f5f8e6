package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"edm-backend/auth"
	"edm-backend/internal/config"
	"edm-backend/internal/errors"
	"edm-backend/internal/middleware"
	"edm-backend/internal/permission"
	"edm-backend/pkg/logger"
	"edm-backend/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	redisLib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var miniRedis *miniredis.Miniredis

func TestMain(m *testing.M) {
	logger.L = zap.NewNop()
	config.AppConfig = config.Config{
		JWTSecret:     "test-secret",
		TokenLifetime: time.Hour,
	}
	os.Exit(m.Run())
}

// MockService is a mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockService) Login(ctx context.Context, username, password string) (*User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	args := m.Called(ctx, id, currentPassword, newPassword)
	return args.Error(0)
}

func (m *MockService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockService) ListUsers(ctx context.Context) ([]SafeUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SafeUser), args.Error(1)
}

func (m *MockService) SetRole(ctx context.Context, id uuid.UUID, role permission.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockService) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) RequestPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockService) ResetPassword(ctx context.Context, token, newPassword string) error {
	args := m.Called(ctx, token, newPassword)
	return args.Error(0)
}

func (m *MockService) BackfillPersonalFolders(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())

	if miniRedis == nil {
		var err error
		miniRedis, err = miniredis.Run()
		if err != nil {
			panic(err)
		}
	}
	if redis.RedisClient == nil {
		redis.RedisClient = redisLib.NewClient(&redisLib.Options{
			Addr: miniRedis.Addr(),
		})
	}

	return router
}

func teardownRouter() {
	if miniRedis != nil {
		miniRedis.Close()
		miniRedis = nil
		redis.RedisClient = nil
	}
}

func testUser() *User {
	return &User{
		ID:        uuid.New(),
		Username:  "jdoe",
		Email:     "jdoe@example.com",
		FirstName: "John",
		LastName:  "Doe",
		Role:      permission.RoleUser,
		IsActive:  true,
	}
}

func postJSON(router *gin.Engine, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRegister_Success(t *testing.T) {
	defer teardownRouter()
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()
	router.POST("/register", handler.Register)

	mockService.On("Register", mock.Anything, mock.MatchedBy(func(u *User) bool {
		return u.Username == "jdoe" && u.Email == "jdoe@example.com" && u.Role == permission.RoleUser
	})).Return(nil).Run(func(args mock.Arguments) {
		u := args.Get(1).(*User)
		u.ID = uuid.New()
		u.IsActive = true
	})

	recorder := postJSON(router, "/register", FormRegister{
		Username:  "jdoe",
		Email:     "jdoe@example.com",
		Password:  "password123",
		FirstName: "John",
		LastName:  "Doe",
	}, nil)

	assert.Equal(t, http.StatusCreated, recorder.Code)
	var response struct {
		User SafeUser `json:"user"`
	}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "jdoe", response.User.Username)
	mockService.AssertExpectations(t)
}

func TestRegister_ValidationError(t *testing.T) {
	defer teardownRouter()
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()
	router.POST("/register", handler.Register)

	recorder := postJSON(router, "/register", FormRegister{
		Username: "jd", // too short
		Email:    "not-an-email",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	mockService.AssertNotCalled(t, "Register")
}

func TestLogin_Success(t *testing.T) {
	defer teardownRouter()
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()
	router.POST("/login", handler.Login)

	u := testUser()
	mockService.On("Login", mock.Anything, "jdoe", "password123").Return(u, nil)

	recorder := postJSON(router, "/login", FormLogin{
		Username: "jdoe",
		Password: "password123",
	}, nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	var response struct {
		AccessToken string   `json:"access_token"`
		User        SafeUser `json:"user"`
	}
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.NotEmpty(t, response.AccessToken)
	assert.Equal(t, u.ID, response.User.ID)

	// A session backs the issued token
	exists, err := redis.SessionExists(context.Background(), response.AccessToken)
	assert.NoError(t, err)
	assert.True(t, exists)
	mockService.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	defer teardownRouter()
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()
	router.POST("/login", handler.Login)

	mockService.On("Login", mock.Anything, "jdoe", "wrong").
		Return(nil, errors.Unauthorized("Invalid username or password", nil))

	recorder := postJSON(router, "/login", FormLogin{
		Username: "jdoe",
		Password: "wrong",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestLogout_RevokesSession(t *testing.T) {
	defer teardownRouter()
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()
	router.POST("/logout", auth.AuthMiddleWare(), handler.Logout)

	u := testUser()
	token, err := auth.GenerateJWT(u.ID, u.Username, string(u.Role))
	assert.NoError(t, err)
	assert.NoError(t, redis.StoreSession(context.Background(), token, time.Hour))

	headers := map[string]string{"Authorization": "Bearer " + token}
	recorder := postJSON(router, "/logout", nil, headers)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	exists, err := redis.SessionExists(context.Background(), token)
	assert.NoError(t, err)
	assert.False(t, exists)

	// The token no longer passes the middleware
	recorder = postJSON(router, "/logout", nil, headers)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthMiddleware_RejectsMissingAndGarbageTokens(t *testing.T) {
	defer teardownRouter()
	router := setupRouter()
	router.GET("/protected", auth.AuthMiddleWare(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestSetRole(t *testing.T) {
	defer teardownRouter()
	mockService := new(MockService)
	handler := NewHandler(mockService)
	router := setupRouter()
	router.PUT("/users/:id/role", handler.SetRole)

	userID := uuid.New()
	mockService.On("SetRole", mock.Anything, userID, permission.RoleManager).Return(nil)

	body, _ := json.Marshal(FormSetRole{Role: "Manager"})
	req := httptest.NewRequest(http.MethodPut, "/users/"+userID.String()+"/role", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	// Unknown roles are rejected before the service is involved
	body, _ = json.Marshal(FormSetRole{Role: "Overlord"})
	req = httptest.NewRequest(http.MethodPut, "/users/"+userID.String()+"/role", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	mockService.AssertExpectations(t)
}
