package app

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-registration-service/internal/config"
)

func setupEnv(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	require.NoError(t, l.Close())

	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", dir)
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_PORT", port)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(dir, "users.db"))
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "2")
	return port
}

func TestApp_RunAndShutdown(t *testing.T) {
	port := setupEnv(t)

	a, err := New()
	require.NoError(t, err)
	assert.Equal(t, "test", a.Config.App.Env)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + port + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	setupEnv(t)
	t.Setenv("PASSWORD_POLICY", "lax")

	_, err := New()
	assert.ErrorContains(t, err, "PASSWORD_POLICY")
}

func TestLoggerConfig_CarriesRotation(t *testing.T) {
	setupEnv(t)
	t.Setenv("LOG_MAX_SIZE_MB", "5")
	t.Setenv("LOG_COMPRESS", "false")

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	lc := loggerConfig(cfg)
	assert.Equal(t, "test", lc.Environment)
	assert.Equal(t, 5, lc.Rotation.MaxSizeMB)
	assert.Equal(t, 3, lc.Rotation.MaxBackups)
	assert.False(t, lc.Rotation.Compress)
}
