package bridge

import (
	"encoding/json"
	"fmt"
)

// CallbackID names an entry in the bridge callback table. The host echoes it
// back when it delivers an event to a registered listener.
type CallbackID uint32

// RemoteError is the error body a host returns for a rejected command.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Frame types exchanged over stream transports.
const (
	FrameInvoke   = "invoke"
	FrameResponse = "response"
	FrameCallback = "callback"
)

// Frame is one message on a stream transport. Which fields are set depends on Type.
type Frame struct {
	Type string `json:"type"`

	// invoke and response
	ID string `json:"id,omitempty"`

	// invoke
	Cmd  string          `json:"cmd,omitempty"`
	Args json.RawMessage `json:"args,omitempty"`

	// response
	OK    bool            `json:"ok,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *RemoteError    `json:"error,omitempty"`

	// callback
	Callback CallbackID      `json:"callback,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Result converts a response frame into the values Transport.Call returns.
// A response that neither confirms success nor carries an error is a failure.
func (f *Frame) Result() (json.RawMessage, error) {
	switch {
	case f.Error != nil:
		return nil, f.Error
	case !f.OK:
		return nil, &RemoteError{Code: "internal", Message: "host did not confirm the request"}
	default:
		return f.Data, nil
	}
}

// MarshalFrame encodes a frame.
func MarshalFrame(f *Frame) ([]byte, error) {
	return api.Marshal(f)
}

// UnmarshalFrame decodes a frame and checks its type.
func UnmarshalFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := api.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	switch f.Type {
	case FrameInvoke, FrameResponse, FrameCallback:
		return &f, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", f.Type)
	}
}
