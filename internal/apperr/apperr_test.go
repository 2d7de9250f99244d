package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorImplementsErrorWithAndWithoutCause(t *testing.T) {
	plain := New(VlanRange, "vlan id out of range")
	assert.Equal(t, "[VlanRange] vlan id out of range", plain.Error())

	cause := errors.New("dial tcp: connection refused")
	wrapped := Wrap(Unreachable, "could not dial switch", cause)
	assert.Equal(t, "[Unreachable] could not dial switch: dial tcp: connection refused", wrapped.Error())
}

func TestErrorUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("boom")
	wrapped := Wrap(Internal, "failed", cause)
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestErrorIsMatchesOnKindNotMessage(t *testing.T) {
	a := New(Busy, "global slots exhausted")
	b := New(Busy, "switch slots exhausted")
	c := New(Overloaded, "host load red")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestKindOfExtractsKindThroughWrapping(t *testing.T) {
	err := Wrap(PlanDrift, "plan no longer matches live state", errors.New("inner"))
	assert.Equal(t, PlanDrift, KindOf(err))
}

func TestKindOfDefaultsToInternalForForeignErrors(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("some other package's error")))
}

func TestKindOfDefaultsToInternalForNil(t *testing.T) {
	assert.Equal(t, Internal, KindOf(nil))
}

func TestRetryableOnlyUnreachable(t *testing.T) {
	assert.True(t, Unreachable.Retryable())
	assert.False(t, Timeout.Retryable())
	assert.False(t, Busy.Retryable())
	assert.False(t, Internal.Retryable())
}
