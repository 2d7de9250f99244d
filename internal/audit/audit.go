// Package audit is the append-only, structured record of every privileged
// action the service performs, grounded on the same append/query shape the
// auth package's in-memory audit logger uses, generalized to every engine
// operation rather than only authentication events.
package audit

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Outcome is the terminal disposition of an audited operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Record is one append-only audit entry (§3's AuditRecord entity). Callers
// redact secrets in Inputs before constructing one; MemorySink.Write also
// runs Redact over Inputs, which scrubs only the key names in sensitiveKeys.
type Record struct {
	ID        string
	At        time.Time
	Principal string
	Role      string
	Operation string
	Inputs    map[string]any
	Outcome   Outcome
	Reason    string
	Duration  time.Duration
	SourceIP  string
}

// Sink is the append contract the engines and router depend on.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// sensitiveKeys are never allowed through into a Record's Inputs even if a
// caller forgets to scrub them; belt-and-suspenders alongside each engine's
// own redaction.
var sensitiveKeys = map[string]bool{
	"password": true, "secret": true, "token": true, "cookie": true,
}

// Redact returns a copy of inputs with any sensitive key's value replaced.
func Redact(inputs map[string]any) map[string]any {
	if inputs == nil {
		return nil
	}
	out := make(map[string]any, len(inputs))
	for k, v := range inputs {
		if sensitiveKeys[k] {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = v
	}
	return out
}

// entropy is a single package-wide monotonic source so that concurrently
// generated ids remain strictly increasing even within the same
// millisecond (ulid.Monotonic's documented use).
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new lexicographically sortable audit record id.
func NewID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// MemorySink is an in-memory append-only Sink, primarily for tests and for
// the seed/demo deployment path; a durable sink (file or external store)
// implements the same interface.
type MemorySink struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemorySink constructs an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write appends rec, assigning an id and timestamp if unset.
func (m *MemorySink) Write(_ context.Context, rec Record) error {
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	rec.Inputs = Redact(rec.Inputs)
	if rec.ID == "" {
		rec.ID = NewID(rec.At)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything written so far, in write order.
func (m *MemorySink) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
