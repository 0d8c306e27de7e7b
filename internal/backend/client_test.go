package backend

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veganchecker/vcadmin/internal/events"
	"github.com/veganchecker/vcadmin/internal/rpc"
)

type recordedCall struct {
	Proc   rpc.Procedure
	Params rpc.Params
}

// fakeCaller answers procedures with canned JSON or errors.
type fakeCaller struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []recordedCall
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeCaller) respond(proc, body string) *fakeCaller {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[proc] = body
	return f
}

func (f *fakeCaller) fail(proc string, err error) *fakeCaller {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[proc] = err
	return f
}

func (f *fakeCaller) Call(_ context.Context, proc rpc.Procedure, params rpc.Params, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Proc: proc, Params: params})
	body, hasBody := f.responses[proc.Name]
	err := f.errs[proc.Name]
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if out == nil || !hasBody {
		return nil
	}
	return json.Unmarshal([]byte(body), out)
}

func (f *fakeCaller) callsTo(proc string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.Proc.Name == proc {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeCaller) last(t *testing.T, proc string) recordedCall {
	t.Helper()
	calls := f.callsTo(proc)
	require.NotEmpty(t, calls, "no call to %s", proc)
	return calls[len(calls)-1]
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	if ev, ok := event.(events.Event); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newTestClient(t *testing.T, caller rpc.Caller, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(caller, opts...)
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestNewClient_NilCaller(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, ErrNilCaller)
}
