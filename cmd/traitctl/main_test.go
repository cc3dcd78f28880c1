package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func execute(ctx context.Context, args ...string) (string, string, error) {
	var stdout, stderr syncBuffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := execute(context.Background(), "version")
	require.NoError(t, err)
	assert.Equal(t, "traitctl "+version+"\n", out)
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conf")

	out, _, err := execute(context.Background(), "init", "--config-dir", dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.yaml")
	assert.Equal(t, "wrote "+path+"\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# traitctl configuration\n")
	assert.Contains(t, string(data), "# Server:\n")
	assert.Contains(t, string(data), "#   port: \"8080\"\n")

	out, _, err = execute(context.Background(), "init", "--config-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "config already exists: "+path+"\n", out)
}

func TestDescribe(t *testing.T) {
	out, _, err := execute(context.Background(), "describe", "server")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Server(Application) options\n"))
	assert.Contains(t, out, "--Server.port=<integer>")
	assert.NotContains(t, out, "--Server.url=")

	out, _, err = execute(context.Background(), "describe", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Application\n")
	assert.Contains(t, out, "---\nname: Server\n")
	assert.Contains(t, out, "---\nname: Worker\n")

	out, _, err = execute(context.Background(), "describe", "Worker", "-f", "rst")
	require.NoError(t, err)
	assert.Contains(t, out, ".. option:: --Worker.queue=<enum>")
}

func TestDescribeErrors(t *testing.T) {
	_, _, err := execute(context.Background(), "describe", "Nope")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
	assert.Contains(t, err.Error(), "Application, Server, Worker")

	_, _, err = execute(context.Background(), "describe", "--format", "html")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestShow(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "Server:\n  port: 9000\n")

	out, _, err := execute(context.Background(), "show", "Server", "--config-dir", dir,
		"--Server.host=example.org", "--set", "Server.base_path=api")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[Server]\n"))
	assert.Contains(t, out, "  port = 9000\n")
	assert.Contains(t, out, "  bind = example.org:9000\n")
	assert.Contains(t, out, "  url = http://example.org:9000/api\n")
	assert.Contains(t, out, "  tls_cert = None\n")
	assert.NotContains(t, out, "[Worker]")
}

func TestShowJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "Worker:\n  queue: pri\n  workers: 3\n")

	out, _, err := execute(context.Background(), "show", "--json", "--config-dir", dir)
	require.NoError(t, err)

	var values map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	assert.Len(t, values, 3)
	assert.Equal(t, "priority", values["Worker"]["queue"])
	assert.Equal(t, "3", values["Worker"]["workers"])
	assert.Equal(t, "info", values["Application"]["log_level"])
}

func TestShowCreatesDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")
	out, _, err := execute(context.Background(), "show", "Application", "--config-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "  log_level = info\n")
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
}

func TestShowErrors(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"out of range", []string{"--set", "Server.port=99999"}, traits.ErrTypeMismatch},
		{"not configurable", []string{"--set", "Server.url=http://x/"}, traits.ErrUnknownTrait},
		{"tls on port 80", []string{"--set", "Server.tls_cert=cert.pem", "--set", "Server.port=80"}, traits.ErrValidationRejected},
		{"bad assignment", []string{"--set", "Server.port"}, errUsage},
		{"bad flag value", []string{"--Worker.queue=stack"}, traits.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"show", "--config-dir", dir}, tt.args...)
			_, _, err := execute(context.Background(), args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}
}

func TestShowBadConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "Server:\n  port: -1\n")
	_, _, err := execute(context.Background(), "show", "--config-dir", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, traits.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "config.yaml")

	_, _, err = execute(context.Background(), "show", "--config", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestVerboseLogsRollback(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "Server:\n  port: 9000\n  host: \"bad host!\"\n")
	_, stderr, err := execute(context.Background(), "show", "-v", "--config-dir", dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "rolled back batch")
	assert.Contains(t, stderr, "component=traits")
	traits.SetLogger(nil)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "Server:\n  port: 9000\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout syncBuffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"watch", "Server", "--config-dir", dir})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "watching "+path)
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, stdout.String(), "  port = 9000\n")

	require.NoError(t, os.WriteFile(path, []byte("Server:\n  port: 9100\n"), 0o644))
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "changed Server.port: 9000 -> 9100\n")
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("Server:\n  port: nope\n"), 0o644))
	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "rejected: ")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", errUsage), exitUserError},
		{fmt.Errorf("apply: %w", traits.ErrReadOnly), exitUserError},
		{&traits.TypeMismatchError{Trait: "port"}, exitUserError},
		{errors.New("disk on fire"), exitSysError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), tt.err.Error())
	}
}
