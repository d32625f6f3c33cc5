package bridge

import (
	"bytes"
	"encoding/json"

	"github.com/bytedance/sonic"
)

var api = sonic.ConfigStd

// Encode serializes v for the wire. A nil v encodes as an empty object.
func Encode(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage(`{}`), nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := api.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Decode deserializes a wire value into out.
func Decode(raw json.RawMessage, out any) error {
	return api.Unmarshal(raw, out)
}

// IsNull reports whether raw carries no value.
func IsNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
