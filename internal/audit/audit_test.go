package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactScrubsSensitiveKeysOnly(t *testing.T) {
	in := map[string]any{
		"username": "alice",
		"password": "hunter2",
		"token":    "abc123",
		"vlan_id":  20,
	}
	out := Redact(in)

	assert.Equal(t, "alice", out["username"])
	assert.Equal(t, "[REDACTED]", out["password"])
	assert.Equal(t, "[REDACTED]", out["token"])
	assert.Equal(t, 20, out["vlan_id"])
}

func TestRedactDoesNotMutateInput(t *testing.T) {
	in := map[string]any{"password": "hunter2"}
	_ = Redact(in)
	assert.Equal(t, "hunter2", in["password"])
}

func TestRedactNilIsNil(t *testing.T) {
	assert.Nil(t, Redact(nil))
}

func TestNewIDsAreUniqueAndLexicallyIncreasing(t *testing.T) {
	now := time.Now()
	a := NewID(now)
	b := NewID(now)
	assert.NotEqual(t, a, b)
	assert.True(t, a < b, "ulid.Monotonic should yield increasing ids for the same timestamp")
}

func TestMemorySinkWriteAssignsIDWhenUnset(t *testing.T) {
	sink := NewMemorySink()
	err := sink.Write(context.Background(), Record{Principal: "alice", Operation: "vlan.execute", Outcome: OutcomeSuccess})
	require.NoError(t, err)

	records := sink.Records()
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
}

func TestMemorySinkPreservesGivenID(t *testing.T) {
	sink := NewMemorySink()
	err := sink.Write(context.Background(), Record{ID: "explicit-id", Principal: "alice"})
	require.NoError(t, err)

	records := sink.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "explicit-id", records[0].ID)
}

func TestMemorySinkRecordsPreserveWriteOrder(t *testing.T) {
	sink := NewMemorySink()
	require.NoError(t, sink.Write(context.Background(), Record{Operation: "first"}))
	require.NoError(t, sink.Write(context.Background(), Record{Operation: "second"}))

	records := sink.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Operation)
	assert.Equal(t, "second", records[1].Operation)
}

func TestMemorySinkRecordsReturnsACopy(t *testing.T) {
	sink := NewMemorySink()
	require.NoError(t, sink.Write(context.Background(), Record{Operation: "first"}))

	records := sink.Records()
	records[0].Operation = "mutated"

	fresh := sink.Records()
	assert.Equal(t, "first", fresh[0].Operation)
}
