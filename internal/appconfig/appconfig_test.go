package appconfig

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

func TestServerDefaults(t *testing.T) {
	s, err := Server.New(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", s.MustGet("host"))
	assert.Equal(t, int64(8080), s.MustGet("port"))
	assert.Equal(t, traits.TCPAddr{Host: "localhost", Port: 8080}, s.MustGet("bind"))
	assert.Equal(t, "http://localhost:8080/", s.MustGet("url"))
	assert.Nil(t, s.MustGet("tls_cert"))
	assert.Equal(t, "traitctl", s.MustGet("name"))
}

func TestServerURLFollowsSettings(t *testing.T) {
	s, err := Server.New(map[string]any{
		"host":      "example.org",
		"port":      8443,
		"tls_cert":  "/etc/cert.pem",
		"base_path": "api",
	})
	require.NoError(t, err)
	assert.Equal(t, "/api", s.MustGet("base_path"))
	assert.Equal(t, "https://example.org:8443/api", s.MustGet("url"))

	assert.ErrorIs(t, s.Set("url", "http://other/"), traits.ErrReadOnly)
}

func TestServerRejectsTLSOnPort80(t *testing.T) {
	s, err := Server.New(map[string]any{"tls_cert": "/etc/cert.pem"})
	require.NoError(t, err)

	err = s.Set("port", 80)
	assert.ErrorIs(t, err, ErrTLSOnPlainPort)
	assert.ErrorIs(t, err, traits.ErrValidationRejected)
	assert.Equal(t, int64(8080), s.MustGet("port"))

	err = s.HoldNotifications(func() error {
		if err := s.Set("tls_cert", nil); err != nil {
			return err
		}
		return s.Set("port", 80)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(80), s.MustGet("port"))
}

func TestServerHostConstraint(t *testing.T) {
	s, err := Server.New(nil)
	require.NoError(t, err)

	assert.NoError(t, s.Set("host", "10.0.0.1"))
	assert.ErrorIs(t, s.Set("host", "not a host"), traits.ErrTypeMismatch)
}

func TestDebugRaisesLogLevel(t *testing.T) {
	a, err := Application.New(nil)
	require.NoError(t, err)

	level, err := LogLevel(a)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	require.NoError(t, a.Set("debug", "yes"))
	level, err = LogLevel(a)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	require.NoError(t, a.Set("log_level", "WARN"))
	assert.Equal(t, "warn", a.MustGet("log_level"))
}

func TestWorkerDefaults(t *testing.T) {
	w, err := Worker.New(nil)
	require.NoError(t, err)

	n := w.MustGet("workers").(int64)
	assert.GreaterOrEqual(t, n, int64(1))
	assert.LessOrEqual(t, n, int64(64))
	assert.Equal(t, "fifo", w.MustGet("queue"))
	assert.Equal(t, []any{int64(3), 0.5}, w.MustGet("retry"))
	assert.Equal(t, "auto", w.MustGet("batch"))
	assert.Nil(t, w.MustGet("handler"))
}

func TestWorkerValues(t *testing.T) {
	w, err := Worker.New(nil)
	require.NoError(t, err)

	require.NoError(t, w.SetString("queue", "pri"))
	assert.Equal(t, "priority", w.MustGet("queue"))
	require.NoError(t, w.SetString("batch", "32"))
	assert.Equal(t, int64(32), w.MustGet("batch"))
	assert.ErrorIs(t, w.Set("workers", 0), traits.ErrTypeMismatch)
	require.NoError(t, w.Set("handler", slog.NewTextHandler(nil, nil)))
	assert.ErrorIs(t, w.Set("handler", "text"), traits.ErrTypeMismatch)
}

func TestLookupAndObjects(t *testing.T) {
	c, ok := Lookup("server")
	require.True(t, ok)
	assert.Same(t, Server, c)
	_, ok = Lookup("nope")
	assert.False(t, ok)

	objs, err := NewObjects()
	require.NoError(t, err)
	require.Len(t, objs, 3)
	assert.Same(t, Worker, objs[2].Class())
}
