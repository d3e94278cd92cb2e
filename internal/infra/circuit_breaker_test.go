package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSMTP = errors.New("smtp: connection refused")

func newTestCB() *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenTimeout:      50 * time.Millisecond,
	})
}

func fail() error { return errSMTP }
func ok() error   { return nil }

func TestCBTripsAfterThreshold(t *testing.T) {
	cb := newTestCB()

	for i := 0; i < 3; i++ {
		assert.Equal(t, CBClosed, cb.State())
		require.ErrorIs(t, cb.Execute(fail), errSMTP)
	}
	assert.Equal(t, CBOpen, cb.State())

	// Open: fast-fail without invoking fn
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCBSuccessResetsFailureCount(t *testing.T) {
	cb := newTestCB()

	require.Error(t, cb.Execute(fail))
	require.Error(t, cb.Execute(fail))
	require.NoError(t, cb.Execute(ok))
	require.Error(t, cb.Execute(fail))
	require.Error(t, cb.Execute(fail))

	assert.Equal(t, CBClosed, cb.State(), "interleaved successes keep the circuit closed")
}

func TestCBRecoversViaHalfOpen(t *testing.T) {
	cb := newTestCB()

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(fail))
	}
	require.Equal(t, CBOpen, cb.State())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	// Two successful probes close the circuit again
	require.NoError(t, cb.Execute(ok))
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCBFailedProbeReopens(t *testing.T) {
	cb := newTestCB()

	for i := 0; i < 3; i++ {
		require.Error(t, cb.Execute(fail))
	}
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, CBHalfOpen, cb.State())

	require.ErrorIs(t, cb.Execute(fail), errSMTP)
	assert.Equal(t, CBOpen, cb.State())
}

func TestCBStateString(t *testing.T) {
	assert.Equal(t, "closed", CBClosed.String())
	assert.Equal(t, "open", CBOpen.String())
	assert.Equal(t, "half-open", CBHalfOpen.String())
}
