package bridge_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
	"github.com/GriffinCanCode/hostwin/internal/testutil"
)

func TestInvokeDecodesResult(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	tr.On("Call", mock.Anything, "plugin:window|isVisible", testutil.ArgsJSON(`{"label":"main"}`)).
		Return(`true`, nil).Once()

	b := bridge.New(tr)
	visible, err := bridge.Call[bool](context.Background(), b, "plugin:window|isVisible", map[string]string{"label": "main"})
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestInvokeNilArgsSendsEmptyObject(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	tr.On("Call", mock.Anything, "plugin:app|version", testutil.ArgsJSON(`{}`)).Return(`"1.2.3"`, nil).Once()

	v, err := bridge.Call[string](context.Background(), bridge.New(tr), "plugin:app|version", nil)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v)
}

func TestInvokeMapsRemoteError(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	tr.On("Call", mock.Anything, "plugin:window|setTitle", mock.Anything).
		Return(nil, &bridge.RemoteError{Code: errs.CodeWindowNotFound, Message: "no window labelled main"}).Once()

	err := bridge.New(tr).Invoke(context.Background(), "plugin:window|setTitle", map[string]string{"label": "main"}, nil)
	require.Error(t, err)

	var hostErr *errs.HostBridgeError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, "plugin:window|setTitle", hostErr.Op)
	assert.Equal(t, errs.CodeWindowNotFound, hostErr.Code)
	assert.ErrorIs(t, err, errs.ErrWindowNotFound)
}

func TestInvokeWrapsTransportFailure(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	down := errors.New("connection reset")
	tr.On("Call", mock.Anything, "plugin:window|show", mock.Anything).Return(nil, down).Once()

	err := bridge.New(tr).Invoke(context.Background(), "plugin:window|show", nil, nil)
	assert.True(t, errs.IsHostBridge(err))
	assert.ErrorIs(t, err, down)
}

func TestInvokeNullResultFailsClosed(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	tr.On("Call", mock.Anything, "plugin:window|isMaximized", mock.Anything).Return(`null`, nil).Once()

	var out bool
	err := bridge.New(tr).Invoke(context.Background(), "plugin:window|isMaximized", nil, &out)
	assert.True(t, errs.IsHostBridge(err))
	assert.ErrorIs(t, err, bridge.ErrEmptyResult)
}

func TestInvokeMalformedResultIsSerializationError(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	tr.On("Call", mock.Anything, "plugin:window|scaleFactor", mock.Anything).Return(`"two"`, nil).Once()

	_, err := bridge.Call[float64](context.Background(), bridge.New(tr), "plugin:window|scaleFactor", nil)
	assert.True(t, errs.IsSerialization(err))
	assert.False(t, errs.IsHostBridge(err))
}

func TestInvokeUnencodableArgs(t *testing.T) {
	tr := testutil.NewMockTransport(t)

	err := bridge.New(tr).Invoke(context.Background(), "plugin:event|emit", map[string]interface{}{"payload": make(chan int)}, nil)
	assert.True(t, errs.IsSerialization(err))
	tr.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvokeTimeout(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	tr.On("Call", mock.Anything, "plugin:window|center", mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded).Once()

	b := bridge.New(tr, bridge.WithTimeout(10*time.Millisecond))
	err := b.Invoke(context.Background(), "plugin:window|center", nil, nil)
	assert.True(t, errs.IsHostBridge(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClosedBridgeRejectsCalls(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	b := bridge.New(tr)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.True(t, tr.IsClosed())

	err := b.Invoke(context.Background(), "plugin:window|show", nil, nil)
	assert.ErrorIs(t, err, errs.ErrBridgeClosed)
}

func TestCallbackTable(t *testing.T) {
	tr := testutil.NewMockTransport(t)
	b := bridge.New(tr)

	var got []string
	first := b.RegisterCallback(func(p json.RawMessage) { got = append(got, "first:"+string(p)) })
	second := b.RegisterCallback(func(p json.RawMessage) { got = append(got, "second:"+string(p)) })
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, b.Callbacks())

	tr.Deliver(first, `1`)
	tr.Deliver(second, `2`)
	b.ForgetCallback(first)
	tr.Deliver(first, `3`)
	tr.Deliver(99, `4`)

	assert.Equal(t, []string{"first:1", "second:2"}, got)
	assert.Equal(t, 1, b.Callbacks())
}

func TestFrameResult(t *testing.T) {
	ok := &bridge.Frame{Type: bridge.FrameResponse, OK: true, Data: json.RawMessage(`5`)}
	data, err := ok.Result()
	require.NoError(t, err)
	assert.JSONEq(t, `5`, string(data))

	unconfirmed := &bridge.Frame{Type: bridge.FrameResponse}
	_, err = unconfirmed.Result()
	assert.Error(t, err)

	rejected := &bridge.Frame{Type: bridge.FrameResponse, Error: &bridge.RemoteError{Code: "invalid_args", Message: "bad"}}
	_, err = rejected.Result()
	var remote *bridge.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "invalid_args", remote.Code)
}

func TestUnmarshalFrameRejectsUnknownType(t *testing.T) {
	_, err := bridge.UnmarshalFrame([]byte(`{"type":"gossip"}`))
	assert.Error(t, err)

	f, err := bridge.UnmarshalFrame([]byte(`{"type":"callback","callback":7,"payload":{"a":1}}`))
	require.NoError(t, err)
	assert.Equal(t, bridge.CallbackID(7), f.Callback)
	assert.JSONEq(t, `{"a":1}`, string(f.Payload))
}
