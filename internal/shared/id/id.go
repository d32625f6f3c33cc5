// Package id generates the identifiers the bindings hand out.
//
// Subscription tokens are prefixed ULIDs (sub_01H...), so they sort by creation time
// and read well in logs. Request ids correlating websocket frames are UUIDv4 strings.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// SubscriptionID identifies one event subscription. Two subscriptions for the same
// event name always carry different ids.
type SubscriptionID string

// RequestID correlates a bridge request with its response.
type RequestID string

const (
	SubscriptionPrefix = "sub"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand, made monotonic so ids minted
// within the same millisecond still sort in creation order.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSubscriptionID mints a subscription token.
func NewSubscriptionID() SubscriptionID {
	return SubscriptionID(Default().GenerateWithPrefix(SubscriptionPrefix))
}

// NewRequestID mints a request correlation id.
func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}

func (id SubscriptionID) String() string { return string(id) }
func (id RequestID) String() string      { return string(id) }

// Timestamp extracts the creation time of a subscription token.
func (id SubscriptionID) Timestamp() (time.Time, error) {
	_, raw, ok := strings.Cut(string(id), "_")
	if !ok {
		return time.Time{}, fmt.Errorf("malformed subscription id %q", id)
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
