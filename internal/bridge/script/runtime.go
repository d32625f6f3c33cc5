// Package script runs a host written in JavaScript inside the process.
//
// The script must define a global function invoke(cmd, args). It may return
// a value, return a Promise, or throw. Thrown objects carrying code and
// message fields become host errors with that code. The script pushes events
// with hostwin.callback(id, payload) and may schedule work with setTimeout.
//
// All script code runs on a single event-loop goroutine.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GriffinCanCode/hostwin/internal/bridge"
	"github.com/GriffinCanCode/hostwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hostwin/internal/shared/errs"
)

// Options configures a script host.
type Options struct {
	// Name labels the script in stack traces
	Name   string
	Logger *zap.Logger
}

// Transport is a bridge.Transport backed by a goja runtime.
type Transport struct {
	vm     *goja.Runtime
	invoke goja.Callable
	settle goja.Callable
	parse  goja.Callable
	format goja.Callable
	logger *zap.Logger

	jobs    chan func()
	done    chan struct{}
	nextJob atomic.Uint64

	runMu   sync.Mutex // guards running and the vm interrupt flag
	running uint64

	sinkMu sync.RWMutex
	sink   bridge.Sink
	queue  *bridge.Queue

	closeOnce sync.Once
}

const prelude = `
var __hostwin_settle = function (value, ok, fail) {
	return Promise.resolve(value).then(ok, fail);
};
`

// Open loads a host script from disk.
func Open(path string, opts Options) (*Transport, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host script: %w", err)
	}
	if opts.Name == "" {
		opts.Name = path
	}
	return New(string(src), opts)
}

// New compiles and runs src, then serves calls through its invoke function.
func New(src string, opts Options) (*Transport, error) {
	if opts.Name == "" {
		opts.Name = "host.js"
	}

	program, err := goja.Compile(opts.Name, src, false)
	if err != nil {
		return nil, &errs.ConfigurationError{Field: "script", Reason: "compile host script", Err: err}
	}

	t := &Transport{
		vm:     goja.New(),
		logger: logging.OrNop(opts.Logger),
		jobs:   make(chan func(), 64),
		done:   make(chan struct{}),
		queue:  bridge.NewQueue(),
	}

	if err := t.setupGlobals(); err != nil {
		return nil, err
	}

	go t.loop()
	go t.queue.Drain(t.done, t.currentSink)

	var setupErr error
	t.do(func() {
		if _, err := t.vm.RunString(prelude); err != nil {
			setupErr = err
			return
		}
		if _, err := t.vm.RunProgram(program); err != nil {
			setupErr = &errs.ConfigurationError{Field: "script", Reason: "run host script", Err: err}
			return
		}
		setupErr = t.bindFunctions()
	})
	if setupErr != nil {
		t.Close()
		return nil, setupErr
	}
	return t, nil
}

func (t *Transport) setupGlobals() error {
	t.vm.Set("require", goja.Undefined())
	t.vm.Set("process", goja.Undefined())
	t.vm.Set("module", goja.Undefined())
	t.vm.Set("exports", goja.Undefined())

	console := t.vm.NewObject()
	console.Set("log", t.makeConsoleFunc(zap.InfoLevel))
	console.Set("info", t.makeConsoleFunc(zap.InfoLevel))
	console.Set("debug", t.makeConsoleFunc(zap.DebugLevel))
	console.Set("warn", t.makeConsoleFunc(zap.WarnLevel))
	console.Set("error", t.makeConsoleFunc(zap.ErrorLevel))
	t.vm.Set("console", console)

	t.vm.Set("setTimeout", t.setTimeout)

	host := t.vm.NewObject()
	host.Set("callback", t.pushCallback)
	return t.vm.Set("hostwin", host)
}

func (t *Transport) bindFunctions() error {
	invoke, ok := goja.AssertFunction(t.vm.Get("invoke"))
	if !ok {
		return errs.Configuration("script", "host script must define a global invoke(cmd, args) function")
	}
	t.invoke = invoke
	t.settle, _ = goja.AssertFunction(t.vm.Get("__hostwin_settle"))

	jsonObj := t.vm.Get("JSON").ToObject(t.vm)
	t.parse, _ = goja.AssertFunction(jsonObj.Get("parse"))
	t.format, _ = goja.AssertFunction(jsonObj.Get("stringify"))
	return nil
}

func (t *Transport) makeConsoleFunc(level zapcore.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		if ce := t.logger.Check(level, strings.Join(parts, " ")); ce != nil {
			ce.Write(zap.String("source", "script"))
		}
		return goja.Undefined()
	}
}

// setTimeout schedules fn on the event loop after the given delay.
func (t *Transport) setTimeout(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(t.vm.NewTypeError("setTimeout: callback is not a function"))
	}
	delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
	time.AfterFunc(delay, func() {
		t.post(func() {
			if _, err := fn(goja.Undefined()); err != nil {
				t.logger.Warn("timer callback failed", zap.Error(err))
			}
		})
	})
	return goja.Undefined()
}

// pushCallback queues a host event for the attached sink.
func (t *Transport) pushCallback(call goja.FunctionCall) goja.Value {
	id := call.Argument(0).ToInteger()
	if id <= 0 || id > int64(^uint32(0)) {
		panic(t.vm.NewTypeError("hostwin.callback: invalid callback id"))
	}
	payload, err := t.stringify(call.Argument(1))
	if err != nil {
		panic(t.vm.NewGoError(err))
	}
	t.queue.Push(bridge.Delivery{ID: bridge.CallbackID(id), Payload: payload})
	return goja.Undefined()
}

func (t *Transport) stringify(v goja.Value) (json.RawMessage, error) {
	if v == nil || goja.IsUndefined(v) {
		return json.RawMessage("null"), nil
	}
	out, err := t.format(goja.Undefined(), v)
	if err != nil {
		return nil, err
	}
	if goja.IsUndefined(out) {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(out.String()), nil
}

func (t *Transport) loop() {
	for {
		select {
		case job := <-t.jobs:
			job()
		case <-t.done:
			return
		}
	}
}

// post enqueues a job without waiting. Jobs posted after Close are dropped.
func (t *Transport) post(job func()) bool {
	select {
	case <-t.done:
		return false
	default:
	}
	select {
	case t.jobs <- job:
		return true
	case <-t.done:
		return false
	}
}

// do runs job on the loop and waits for it.
func (t *Transport) do(job func()) bool {
	finished := make(chan struct{})
	if !t.post(func() {
		defer close(finished)
		job()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-t.done:
		return false
	}
}

func (t *Transport) currentSink() bridge.Sink {
	t.sinkMu.RLock()
	defer t.sinkMu.RUnlock()
	return t.sink
}

// Attach sets the sink receiving host callbacks.
func (t *Transport) Attach(sink bridge.Sink) {
	t.sinkMu.Lock()
	t.sink = sink
	t.sinkMu.Unlock()
}

type outcome struct {
	data json.RawMessage
	err  error
}

// Call runs invoke(cmd, args) on the event loop. A script still executing
// when ctx ends is interrupted.
func (t *Transport) Call(ctx context.Context, cmd string, args json.RawMessage) (json.RawMessage, error) {
	result := make(chan outcome, 1)
	jobID := t.nextJob.Add(1)

	queued := t.post(func() {
		t.setRunning(jobID)
		defer t.setRunning(0)
		if ctx.Err() != nil {
			result <- outcome{err: ctx.Err()}
			return
		}
		t.call(cmd, args, result)
	})
	if !queued {
		return nil, errs.ErrBridgeClosed
	}

	select {
	case out := <-result:
		return out.data, out.err
	case <-ctx.Done():
		t.interruptJob(jobID, ctx.Err())
		return nil, ctx.Err()
	case <-t.done:
		return nil, errs.ErrBridgeClosed
	}
}

func (t *Transport) setRunning(jobID uint64) {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	t.vm.ClearInterrupt()
	t.running = jobID
}

// interruptJob stops the script only while jobID is the job executing.
func (t *Transport) interruptJob(jobID uint64, reason error) {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.running == jobID {
		t.vm.Interrupt(reason)
	}
}

func (t *Transport) call(cmd string, args json.RawMessage, result chan<- outcome) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	parsed, err := t.parse(goja.Undefined(), t.vm.ToValue(string(args)))
	if err != nil {
		result <- outcome{err: &errs.SerializationError{Op: cmd, Err: err}}
		return
	}

	value, err := t.invoke(goja.Undefined(), t.vm.ToValue(cmd), parsed)
	if err != nil {
		result <- outcome{err: t.remoteError(err)}
		return
	}

	ok := func(call goja.FunctionCall) goja.Value {
		data, err := t.stringify(call.Argument(0))
		if err != nil {
			result <- outcome{err: &errs.SerializationError{Op: cmd, Err: err}}
		} else {
			result <- outcome{data: data}
		}
		return goja.Undefined()
	}
	fail := func(call goja.FunctionCall) goja.Value {
		result <- outcome{err: t.rejection(call.Argument(0))}
		return goja.Undefined()
	}
	if _, err := t.settle(goja.Undefined(), value, t.vm.ToValue(ok), t.vm.ToValue(fail)); err != nil {
		result <- outcome{err: t.remoteError(err)}
	}
}

func (t *Transport) remoteError(err error) error {
	if ex, ok := err.(*goja.Exception); ok {
		return t.rejection(ex.Value())
	}
	if ie, ok := err.(*goja.InterruptedError); ok {
		if cause, ok := ie.Value().(error); ok {
			return cause
		}
	}
	return &bridge.RemoteError{Code: errs.CodeInternal, Message: err.Error()}
}

// rejection converts a thrown or rejected JavaScript value to a RemoteError.
func (t *Transport) rejection(v goja.Value) error {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return &bridge.RemoteError{Code: errs.CodeInternal, Message: "host rejected the request"}
	}
	if obj, ok := v.(*goja.Object); ok {
		code := obj.Get("code")
		msg := obj.Get("message")
		remote := &bridge.RemoteError{Code: errs.CodeInternal, Message: v.String()}
		if code != nil && !goja.IsUndefined(code) {
			remote.Code = code.String()
		}
		if msg != nil && !goja.IsUndefined(msg) {
			remote.Message = msg.String()
		}
		return remote
	}
	return &bridge.RemoteError{Code: errs.CodeInternal, Message: v.String()}
}

// Close stops the event loop. Pending calls fail with ErrBridgeClosed.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.vm.Interrupt(errs.ErrBridgeClosed)
	})
	return nil
}
