package cli_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veganchecker/vcadmin/internal/cli"
	"github.com/veganchecker/vcadmin/internal/config"
)

const (
	rpcPrefix    = "/rest/v1/rpc/"
	pushPath     = "/functions/v1/send-push-notification"
	testAnonKey  = "anon-key-1234"
	testAdminKey = "admin-key-5678"
)

// fakeBackend serves canned procedure responses and records every request body.
type fakeBackend struct {
	t *testing.T

	mu        sync.Mutex
	responses map[string]string
	handlers  map[string]func(body map[string]any) string
	failures  map[string]int
	calls     map[string][]map[string]any
}

// newFakeBackend starts an HTTP backend and points the CLI environment at it.
func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{
		t:         t,
		responses: map[string]string{},
		handlers:  map[string]func(map[string]any) string{},
		failures:  map[string]int{},
		calls:     map[string][]map[string]any{},
	}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)

	t.Setenv(config.EnvBackendURL, srv.URL)
	t.Setenv(config.EnvAnonKey, testAnonKey)
	t.Setenv(config.EnvAdminAPIKey, testAdminKey)
	return fb
}

func (fb *fakeBackend) respond(name, body string) *fakeBackend {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.responses[name] = body
	return fb
}

// handle answers name with a response computed from each request body.
func (fb *fakeBackend) handle(name string, fn func(body map[string]any) string) *fakeBackend {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers[name] = fn
	return fb
}

func (fb *fakeBackend) fail(name string, status int) *fakeBackend {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failures[name] = status
	return fb
}

// callsTo returns the decoded request bodies sent to name.
func (fb *fakeBackend) callsTo(name string) []map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[name]
}

func (fb *fakeBackend) last(name string) map[string]any {
	fb.t.Helper()
	calls := fb.callsTo(name)
	require.NotEmpty(fb.t, calls, "no call to %s", name)
	return calls[len(calls)-1]
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	var name string
	switch {
	case strings.HasPrefix(r.URL.Path, rpcPrefix):
		name = strings.TrimPrefix(r.URL.Path, rpcPrefix)
	case r.URL.Path == pushPath:
		name = "push"
	default:
		http.NotFound(w, r)
		return
	}

	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)

	fb.mu.Lock()
	fb.calls[name] = append(fb.calls[name], body)
	resp, ok := fb.responses[name]
	handler := fb.handlers[name]
	status := fb.failures[name]
	fb.mu.Unlock()

	if handler != nil {
		resp, ok = handler(body), true
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case status != 0:
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"message":"boom","code":"P0001"}`))
	case ok:
		_, _ = w.Write([]byte(resp))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// setupCLITest isolates configuration and global state for one test.
func setupCLITest(t *testing.T) {
	t.Helper()
	t.Setenv("VCADMIN_HOME", t.TempDir())
	t.Setenv("VCADMIN_CONFIG", "")
	t.Setenv("VCADMIN_PROJECT_DIR", "")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvNATSURL, "")
	t.Cleanup(config.ResetGlobalConfigForTest)
}

// run executes the root command with args and returns the combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runWithInput(t, "", args...)
}

func runWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
