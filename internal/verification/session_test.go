package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/admin_console/internal/logging"
)

func TestSessionHappyPath(t *testing.T) {
	s := NewSession()
	assert.Equal(t, StateIdle, s.Snapshot().State)

	require.NoError(t, s.Begin())
	assert.Equal(t, StateValidating, s.Snapshot().State)
	require.NoError(t, s.Submitting())
	require.NoError(t, s.Succeed(Result{Success: true, Message: "ok"}))

	snap := s.Snapshot()
	assert.Equal(t, StateSucceeded, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "ok", snap.Result.Message)
	assert.Nil(t, snap.Err)

	require.NoError(t, s.Reset())
	snap = s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Result)
}

func TestSessionRejectsSecondSubmission(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Begin())
	assert.ErrorIs(t, s.Begin(), ErrSubmissionInFlight)
	assert.ErrorIs(t, s.Reset(), ErrSubmissionInFlight)

	require.NoError(t, s.Submitting())
	assert.ErrorIs(t, s.Begin(), ErrSubmissionInFlight)
}

func TestSessionFailureClearsResult(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Begin())
	require.NoError(t, s.Submitting())
	require.NoError(t, s.Succeed(Result{Success: true}))

	// a new submission discards the previous result
	require.NoError(t, s.Begin())
	assert.Nil(t, s.Snapshot().Result)

	boom := errors.New("boom")
	require.NoError(t, s.Fail(boom))
	snap := s.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Nil(t, snap.Result)
	assert.Equal(t, boom, snap.Err)
}

func TestSessionInvalidTransitions(t *testing.T) {
	s := NewSession()
	assert.ErrorIs(t, s.Submitting(), ErrInvalidTransition)
	assert.ErrorIs(t, s.Succeed(Result{}), ErrInvalidTransition)
	assert.ErrorIs(t, s.Fail(errors.New("x")), ErrInvalidTransition)

	require.NoError(t, s.Begin())
	assert.ErrorIs(t, s.Succeed(Result{}), ErrInvalidTransition)
}

func TestSessionsPerOperator(t *testing.T) {
	sessions := NewSessions()
	a := sessions.For("a")
	assert.Same(t, a, sessions.For("a"))
	assert.NotSame(t, a, sessions.For("b"))

	require.NoError(t, a.Begin())
	assert.NoError(t, sessions.For("b").Begin())
}

func TestStateText(t *testing.T) {
	text, err := StateSubmitting.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "submitting", string(text))
	assert.Equal(t, "State(9)", State(9).String())
}

func newTestGate(t *testing.T) (*RedisGate, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})
	return NewRedisGate(cache, time.Minute, logging.Discard()), mr
}

func TestRedisGateSerialisesOperator(t *testing.T) {
	gate, mr := newTestGate(t)
	ctx := context.Background()

	release, err := gate.Acquire(ctx, "op-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(inflightPrefix+"op-1"))

	_, err = gate.Acquire(ctx, "op-1")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	other, err := gate.Acquire(ctx, "op-2")
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists(inflightPrefix+"op-1"))

	again, err := gate.Acquire(ctx, "op-1")
	require.NoError(t, err)
	again()
}

func TestRedisGateKeepsForeignReservation(t *testing.T) {
	gate, mr := newTestGate(t)
	ctx := context.Background()

	release, err := gate.Acquire(ctx, "op-1")
	require.NoError(t, err)

	// the reservation expired and another replica took the slot
	require.NoError(t, mr.Set(inflightPrefix+"op-1", "someone-else"))
	release()

	value, err := mr.Get(inflightPrefix + "op-1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", value)
}

func TestRedisGateExpires(t *testing.T) {
	gate, mr := newTestGate(t)
	ctx := context.Background()

	_, err := gate.Acquire(ctx, "op-1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)

	release, err := gate.Acquire(ctx, "op-1")
	require.NoError(t, err)
	release()
}
