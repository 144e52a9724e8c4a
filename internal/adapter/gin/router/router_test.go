package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"user-registration-service/internal/adapter/db/postgres"
	"user-registration-service/internal/adapter/gin/handler"
	"user-registration-service/internal/adapter/gin/middleware"
	"user-registration-service/internal/openapi"
	"user-registration-service/internal/usecase/auth"
	"user-registration-service/pkg/security"
	"user-registration-service/pkg/session"
)

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

func setupRouter(tb testing.TB, development bool, db Pinger) testEnv {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(tb, err)
	sqlDB, err := gdb.DB()
	require.NoError(tb, err)
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(tb, postgres.AutoMigrate(gdb))

	log := zap.NewNop()
	if t, ok := tb.(*testing.T); ok {
		log = zaptest.NewLogger(t)
	}
	uc := auth.New(
		postgres.NewUserRepoPG(gdb, log),
		postgres.NewActivityLogRepoPG(gdb, log),
		security.NewBcryptHasher(bcrypt.MinCost),
		security.ServerRules,
		log,
	)

	doc, err := openapi.New(openapi.Options{Production: !development, PublicBaseURL: "https://example.com"})
	require.NoError(tb, err)
	docJSON, err := doc.JSON()
	require.NoError(tb, err)

	r := SetupRouter(Deps{
		ServiceName: "user-registration-service",
		AuthHandler: handler.NewAuthHandler(uc, log),
		DocsHandler: handler.NewDocsHandler(docJSON, !development, log),
		Security: middleware.SecurityConfig{
			Development:       development,
			ProtectedPrefixes: []string{"/dashboard", "/profile", "/admin"},
		},
		Verifier: session.NewManager("secret"),
		Registry: prometheus.NewRegistry(),
		DB:       db,
		Log:      log,
	})

	return testEnv{router: r, db: gdb}
}

func (e testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRouter_RegisterFlow(t *testing.T) {
	env := setupRouter(t, true, nil)

	w := env.do(http.MethodPost, "/api/auth/register", `{"email":"john@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotContains(t, w.Body.String(), "password")

	var resp handler.RegisterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "User registered successfully", resp.Message)
	assert.Equal(t, "john", resp.User.Name)
	assert.Equal(t, "user", resp.User.Role)

	var stored postgres.UserSchema
	require.NoError(t, env.db.Where("email = ?", "john@example.com").First(&stored).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password123")))

	var logs []postgres.ActivityLogSchema
	require.NoError(t, env.db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, resp.User.ID, logs[0].UserID)
	assert.Equal(t, "REGISTER", logs[0].Action)
	assert.Equal(t, "User registration via API", logs[0].Details)

	w = env.do(http.MethodPost, "/api/auth/register", `{"email":"john@example.com","password":"password123","name":"John"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"User with this email already exists"}`, w.Body.String())
}

func TestRouter_RegisterValidation(t *testing.T) {
	env := setupRouter(t, true, nil)

	tests := []struct {
		body string
		want string
	}{
		{body: `{"email":"invalid-email","password":"password123"}`, want: `{"error":"Invalid email address"}`},
		{body: `{"email":"a@example.com","password":"123"}`, want: `{"error":"Password must be at least 8 characters"}`},
		{body: `not json`, want: `{"error":"Invalid request body"}`},
	}
	for _, tt := range tests {
		w := env.do(http.MethodPost, "/api/auth/register", tt.body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, tt.want, w.Body.String())
	}

	var count int64
	require.NoError(t, env.db.Model(&postgres.UserSchema{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRouter_Docs(t *testing.T) {
	t.Run("development", func(t *testing.T) {
		env := setupRouter(t, true, nil)
		w := env.do(http.MethodGet, "/api/docs", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"User Management System API"`)
		assert.Contains(t, w.Body.String(), `"http://localhost:3000"`)
	})

	t.Run("production public host", func(t *testing.T) {
		env := setupRouter(t, false, nil)
		w := env.do(http.MethodGet, "http://api.example.com/api/docs", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("swagger ui outside development", func(t *testing.T) {
		env := setupRouter(t, false, nil)
		w := env.do(http.MethodGet, "/dev/api-docs/index.html", "")
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, "/404", w.Header().Get("Location"))
	})

	t.Run("swagger ui in development", func(t *testing.T) {
		env := setupRouter(t, true, nil)
		w := env.do(http.MethodGet, "/dev/api-docs/index.html", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "/api/docs"))
	})
}

func TestRouter_ProtectedPrefix(t *testing.T) {
	env := setupRouter(t, true, nil)

	w := env.do(http.MethodGet, "/admin/users", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestRouter_Health(t *testing.T) {
	w := setupRouter(t, true, nil).do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"user-registration-service"}`, w.Body.String())

	w = setupRouter(t, true, stubPinger{err: errors.New("down")}).do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	env := setupRouter(t, true, nil)
	env.do(http.MethodGet, "/health", "")

	w := env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/health",status="200"} 1`)
}
