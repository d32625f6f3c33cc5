package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostBridgeErrorUnwrap(t *testing.T) {
	err := &HostBridgeError{Op: "plugin:window|setTitle", Label: "main", Code: CodeWindowNotFound, Message: "no window"}

	assert.True(t, errors.Is(err, ErrWindowNotFound))
	assert.True(t, IsWindowGone(err))
	assert.True(t, IsHostBridge(fmt.Errorf("wrapped: %w", err)))
	assert.Contains(t, err.Error(), `window "main"`)
}

func TestHostBridgeErrorTransportCause(t *testing.T) {
	err := &HostBridgeError{Op: "plugin:os|arch", Err: ErrBridgeClosed}

	assert.True(t, errors.Is(err, ErrBridgeClosed))
	assert.False(t, IsWindowGone(err))
	assert.Equal(t, "host bridge error: plugin:os|arch: host bridge is closed", err.Error())
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		config bool
		host   bool
		serial bool
	}{
		{"configuration", Configuration("scale_factor", "got %v", -1), true, false, false},
		{"host", &HostBridgeError{Op: "x"}, false, true, false},
		{"serialization", &SerializationError{Op: "decode", Err: errors.New("bad")}, false, false, true},
		{"plain", errors.New("plain"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.config, IsConfiguration(tt.err))
			assert.Equal(t, tt.host, IsHostBridge(tt.err))
			assert.Equal(t, tt.serial, IsSerialization(tt.err))
		})
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Field: "url", Err: errors.New("missing scheme")}
	assert.Equal(t, "configuration error: url: missing scheme", err.Error())
}
