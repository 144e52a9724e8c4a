package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"user-registration-service/internal/adapter/db/postgres"
	"user-registration-service/internal/usecase/auth"
	"user-registration-service/pkg/security"
)

type testStore struct {
	db       *gorm.DB
	released int
}

func newTestStore(t *testing.T) *testStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, postgres.AutoMigrate(db))
	return &testStore{db: db}
}

func (s *testStore) opener(t *testing.T) Opener {
	return func(context.Context) (auth.Usecase, func() error, error) {
		log := zaptest.NewLogger(t)
		uc := auth.New(
			postgres.NewUserRepoPG(s.db, log),
			postgres.NewActivityLogRepoPG(s.db, log),
			security.NewBcryptHasher(bcrypt.MinCost),
			security.ServerRules,
			log,
		)
		return uc, func() error { s.released++; return nil }, nil
	}
}

func run(t *testing.T, open Opener, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(""), &stdout, &stderr, open)
	return code, stdout.String(), stderr.String()
}

func TestExecute_Usage(t *testing.T) {
	failOpen := func(context.Context) (auth.Usecase, func() error, error) {
		t.Fatal("store must not be opened")
		return nil, nil, nil
	}

	for _, args := range [][]string{nil, {"john@example.com"}, {"", "password123"}} {
		code, stdout, _ := run(t, failOpen, args...)
		assert.Equal(t, 1, code)
		assert.Equal(t, usage+"\n", stdout)
	}
}

func TestExecute_Direct(t *testing.T) {
	store := newTestStore(t)

	code, stdout, stderr := run(t, store.opener(t), "john@example.com", "password123")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, 1, store.released)

	lines := strings.SplitN(stdout, "\n", 2)
	require.Len(t, lines, 2)
	assert.Equal(t, "User registered successfully:", lines[0])

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &out))
	assert.Equal(t, "john@example.com", out["email"])
	assert.Equal(t, "john", out["name"])
	assert.Equal(t, "user", out["role"])
	assert.NotContains(t, out, "password")

	var entry postgres.ActivityLogSchema
	require.NoError(t, store.db.First(&entry).Error)
	assert.Equal(t, "User registration via script", entry.Details)
	assert.Equal(t, out["id"], entry.UserID)
}

func TestExecute_DirectWithName(t *testing.T) {
	store := newTestStore(t)

	code, stdout, _ := run(t, store.opener(t), "jane@example.com", "password123", "Jane Doe")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"name": "Jane Doe"`)
}

func TestExecute_DirectFailures(t *testing.T) {
	store := newTestStore(t)
	open := store.opener(t)

	code, _, _ := run(t, open, "john@example.com", "password123")
	require.Equal(t, 0, code)

	code, stdout, stderr := run(t, open, "john@example.com", "password123", "John")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "User with this email already exists\n", stderr)

	code, _, stderr = run(t, open, "invalid-email", "password123")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Invalid email address\n", stderr)

	// every opened store is released
	assert.Equal(t, 3, store.released)
}

func TestExecute_OpenFailure(t *testing.T) {
	open := func(context.Context) (auth.Usecase, func() error, error) {
		return nil, nil, errors.New("dial tcp: connection refused")
	}

	code, _, stderr := run(t, open, "john@example.com", "password123")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "registration error: dial tcp: connection refused")
}

func TestExecute_Server(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["email"] == "taken@example.com" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"User with this email already exists"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"User registered successfully","user":{"id":"u1","email":"new@example.com","name":"new","role":"user"}}`))
	}))
	t.Cleanup(srv.Close)

	noStore := func(context.Context) (auth.Usecase, func() error, error) {
		t.Fatal("store must not be opened in server mode")
		return nil, nil, nil
	}

	code, stdout, _ := run(t, noStore, "--server", srv.URL, "new@example.com", "password123")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, `"id": "u1"`)

	code, _, stderr := run(t, noStore, "--server", srv.URL, "taken@example.com", "password123")
	assert.Equal(t, 1, code)
	assert.Equal(t, "User with this email already exists\n", stderr)

	code, _, stderr = run(t, noStore, "--server", srv.URL, "--form-checks", "new@example.com", "password123")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, security.MsgPasswordUpper)
}
