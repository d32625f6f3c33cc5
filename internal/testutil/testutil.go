// Package testutil provides testing utilities shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
)

// MockTransport is a testify mock of bridge.Transport. Call is mocked;
// Attach and Close are recorded so tests can push callbacks with Deliver.
type MockTransport struct {
	mock.Mock

	mu     sync.Mutex
	sink   bridge.Sink
	closed bool
}

// Call mocks the Call method. Return values are (json.RawMessage, error).
func (m *MockTransport) Call(ctx context.Context, cmd string, args json.RawMessage) (json.RawMessage, error) {
	a := m.Called(ctx, cmd, args)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	switch v := a.Get(0).(type) {
	case json.RawMessage:
		return v, a.Error(1)
	case string:
		return json.RawMessage(v), a.Error(1)
	default:
		return a.Get(0).([]byte), a.Error(1)
	}
}

// Attach records the sink so tests can Deliver to it.
func (m *MockTransport) Attach(sink bridge.Sink) {
	m.mu.Lock()
	m.sink = sink
	m.mu.Unlock()
}

// Close is a no-op.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// IsClosed reports whether Close was called.
func (m *MockTransport) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Deliver pushes a host callback through the attached sink.
func (m *MockTransport) Deliver(id bridge.CallbackID, payload string) {
	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()
	if sink != nil {
		sink(id, json.RawMessage(payload))
	}
}

// NewMockTransport creates a mock transport with no default behaviors.
func NewMockTransport(t *testing.T) *MockTransport {
	t.Helper()
	m := new(MockTransport)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ArgsJSON matches a Call args payload equal to the given JSON document.
func ArgsJSON(expected string) interface{} {
	return mock.MatchedBy(func(raw json.RawMessage) bool {
		var want, got interface{}
		if err := json.Unmarshal([]byte(expected), &want); err != nil {
			return false
		}
		if err := json.Unmarshal(raw, &got); err != nil {
			return false
		}
		return jsonEqual(want, got)
	})
}

func jsonEqual(a, b interface{}) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}
