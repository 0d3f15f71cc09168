package clients

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trippedBreaker returns a breaker that is open with a controllable clock.
func trippedBreaker(t *testing.T, halfOpenLimit int) (*CircuitBreaker, *time.Time) {
	t.Helper()

	now := time.Now()

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   1,
		Timeout:       100 * time.Millisecond,
		HalfOpenLimit: halfOpenLimit,
	})
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	return cb, &now
}

func TestCircuitBreaker_InitialState(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 5, Timeout: 30 * time.Second})

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_ClosedToOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, Timeout: 30 * time.Second})

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, Timeout: 30 * time.Second})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_OpenToHalfOpen(t *testing.T) {
	cb, now := trippedBreaker(t, 2)

	*now = now.Add(50 * time.Millisecond)
	assert.False(t, cb.Allow(), "still inside the open window")

	*now = now.Add(100 * time.Millisecond)
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenLimitsTrials(t *testing.T) {
	cb, now := trippedBreaker(t, 2)
	*now = now.Add(150 * time.Millisecond)

	assert.True(t, cb.Allow())
	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow(), "third concurrent trial request is rejected")

	cb.RecordSuccess()
	assert.True(t, cb.Allow(), "a finished trial request frees its slot")
}

func TestCircuitBreaker_HalfOpenToClosed(t *testing.T) {
	cb, now := trippedBreaker(t, 2)
	*now = now.Add(150 * time.Millisecond)

	require.True(t, cb.Allow())
	require.True(t, cb.Allow())

	cb.RecordSuccess()
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_HalfOpenToOpen(t *testing.T) {
	cb, now := trippedBreaker(t, 2)
	*now = now.Add(150 * time.Millisecond)

	require.True(t, cb.Allow())
	cb.RecordFailure()

	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreaker_DefaultHalfOpenLimit(t *testing.T) {
	cb, now := trippedBreaker(t, 0)
	*now = now.Add(150 * time.Millisecond)

	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow())

	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	changes := make(chan [2]State, 4)

	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute})
	cb.OnStateChange(func(from, to State) { changes <- [2]State{from, to} })

	cb.RecordFailure()

	select {
	case got := <-changes:
		assert.Equal(t, [2]State{StateClosed, StateOpen}, got)
	case <-time.After(time.Second):
		t.Fatal("state change callback not invoked")
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   100,
		Timeout:       time.Second,
		HalfOpenLimit: 10,
	})

	var wg sync.WaitGroup
	var allowed atomic.Int64

	for range 1000 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if !cb.Allow() {
				return
			}

			if allowed.Add(1)%2 == 0 {
				cb.RecordSuccess()
			} else {
				cb.RecordFailure()
			}
		}()
	}

	wg.Wait()

	assert.Contains(t, []State{StateClosed, StateOpen, StateHalfOpen}, cb.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}
