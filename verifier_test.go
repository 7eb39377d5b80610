package arcpay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadia-pay/arcpay/types"
)

// pollState is one scripted observation of the timelock's three predicates.
type pollState struct {
	pending bool
	ready   bool
	done    bool
}

// scriptedInspector replays a fixed sequence of poll observations. The last
// entry repeats once the script is exhausted.
type scriptedInspector struct {
	mu       sync.Mutex
	script   []pollState
	polls    int
	failures int // pending reads to fail before the script resumes
}

func (s *scriptedInspector) current() pollState {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.polls
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}

	return s.script[idx]
}

func (s *scriptedInspector) IsOperation(context.Context, common.Hash) (bool, error) {
	return true, nil
}

func (s *scriptedInspector) IsOperationPending(context.Context, common.Hash) (bool, error) {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()

		return false, errRPCUnavailable
	}
	s.mu.Unlock()

	state := s.current()

	return state.pending, nil
}

func (s *scriptedInspector) IsOperationReady(context.Context, common.Hash) (bool, error) {
	state := s.current()

	return state.ready, nil
}

func (s *scriptedInspector) IsOperationDone(context.Context, common.Hash) (bool, error) {
	state := s.current()

	// A full pending/ready/done read completes one poll.
	s.mu.Lock()
	s.polls++
	s.mu.Unlock()

	return state.done, nil
}

func (s *scriptedInspector) GetMinDelay(context.Context) (uint64, error) {
	return 86400, nil
}

func (s *scriptedInspector) pollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.polls
}

type verifyOutcome struct {
	result VerifyResult
	err    error
}

func startVerify(
	ctx context.Context, v *Verifier, opID common.Hash, interval, timeout time.Duration,
) <-chan verifyOutcome {
	out := make(chan verifyOutcome, 1)
	go func() {
		result, err := v.Verify(ctx, opID, interval, timeout)
		out <- verifyOutcome{result: result, err: err}
	}()

	return out
}

var verifyOpID = common.HexToHash("0xb5fa1985871dc4dc89615f967f28fa75f570a499075636d33fc38c65d3f66860")

func TestVerify_ReadyOnFirstPoll(t *testing.T) {
	t.Parallel()

	inspector := &scriptedInspector{script: []pollState{
		{pending: true, ready: true},
	}}
	v := NewVerifier(inspector, WithClock(testclock.NewClock(time.Now())))

	result, err := v.Verify(context.Background(), verifyOpID, time.Second, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, types.OperationStateReady, result.State)
	assert.Equal(t, verifyOpID, result.OpID)
	assert.True(t, result.Ready)
	assert.Equal(t, 1, inspector.pollCount())
}

func TestVerify_ReadyOnThirdPoll(t *testing.T) {
	t.Parallel()

	inspector := &scriptedInspector{script: []pollState{
		{pending: true},
		{pending: true},
		{pending: true, ready: true},
	}}
	clk := testclock.NewClock(time.Now())
	v := NewVerifier(inspector, WithClock(clk))

	interval := 10 * time.Millisecond
	out := startVerify(context.Background(), v, verifyOpID, interval, time.Minute)

	// Two not-ready polls each park the loop on the interval timer.
	for range 2 {
		require.NoError(t, clk.WaitAdvance(interval, time.Second, 1))
	}

	outcome := <-out
	require.NoError(t, outcome.err)
	assert.Equal(t, types.OperationStateReady, outcome.result.State)
	assert.Equal(t, 3, inspector.pollCount())
}

func TestVerify_DoneIsSuccess(t *testing.T) {
	t.Parallel()

	// Ready flips back to false once the operation executes; done alone is
	// still a successful terminal observation.
	inspector := &scriptedInspector{script: []pollState{
		{done: true},
	}}
	v := NewVerifier(inspector, WithClock(testclock.NewClock(time.Now())))

	result, err := v.Verify(context.Background(), verifyOpID, time.Second, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, types.OperationStateDone, result.State)
	assert.True(t, result.Done)
	assert.False(t, result.Ready)
}

func TestVerify_NeverReadyTimesOut(t *testing.T) {
	t.Parallel()

	inspector := &scriptedInspector{script: []pollState{
		{pending: true},
	}}
	clk := testclock.NewClock(time.Now())
	v := NewVerifier(inspector, WithClock(clk))

	interval := 10 * time.Millisecond
	timeout := 25 * time.Millisecond
	out := startVerify(context.Background(), v, verifyOpID, interval, timeout)

	// Polls land at 0ms, 10ms, 20ms and 30ms of clock time; the budget check
	// fires on the first poll at or past the timeout.
	for range 3 {
		require.NoError(t, clk.WaitAdvance(interval, time.Second, 1))
	}

	outcome := <-out
	require.Error(t, outcome.err)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, outcome.err, &timeoutErr)
	assert.Equal(t, verifyOpID, timeoutErr.OpID)
	assert.Equal(t, timeout, timeoutErr.Timeout)
	assert.Equal(t, types.OperationStatePending, timeoutErr.LastState)
}

func TestVerify_UnknownOperationTimesOut(t *testing.T) {
	t.Parallel()

	inspector := &scriptedInspector{script: []pollState{
		{},
	}}
	clk := testclock.NewClock(time.Now())
	v := NewVerifier(inspector, WithClock(clk))

	interval := 10 * time.Millisecond
	out := startVerify(context.Background(), v, verifyOpID, interval, 15*time.Millisecond)

	for range 2 {
		require.NoError(t, clk.WaitAdvance(interval, time.Second, 1))
	}

	outcome := <-out
	var timeoutErr *TimeoutError
	require.ErrorAs(t, outcome.err, &timeoutErr)
	assert.Equal(t, types.OperationStateUnknown, timeoutErr.LastState)
}

func TestVerify_ContextCancelled(t *testing.T) {
	t.Parallel()

	inspector := &scriptedInspector{script: []pollState{
		{pending: true},
	}}
	clk := testclock.NewClock(time.Now())
	v := NewVerifier(inspector, WithClock(clk))

	ctx, cancel := context.WithCancel(context.Background())
	out := startVerify(ctx, v, verifyOpID, 10*time.Millisecond, time.Minute)

	// Wait for the loop to park on the interval timer, then cancel.
	require.NoError(t, clk.WaitAdvance(0, time.Second, 1))
	cancel()

	outcome := <-out
	require.ErrorIs(t, outcome.err, context.Canceled)
}

func TestVerify_TransientReadErrorRetried(t *testing.T) {
	t.Parallel()

	inspector := &scriptedInspector{script: []pollState{
		{pending: true, ready: true},
	}}
	inspector.failures = 1
	clk := testclock.NewClock(time.Now())
	v := NewVerifier(inspector, WithClock(clk))

	out := startVerify(context.Background(), v, verifyOpID, time.Second, time.Minute)

	// The failed read parks the retry helper on its backoff timer.
	require.NoError(t, clk.WaitAdvance(readRetryDelay, time.Second, 1))

	outcome := <-out
	require.NoError(t, outcome.err)
	assert.Equal(t, types.OperationStateReady, outcome.result.State)
}

func TestVerify_PersistentReadErrorFails(t *testing.T) {
	t.Parallel()

	inspector := &scriptedInspector{script: []pollState{
		{pending: true, ready: true},
	}}
	inspector.failures = readAttempts
	clk := testclock.NewClock(time.Now())
	v := NewVerifier(inspector, WithClock(clk))

	out := startVerify(context.Background(), v, verifyOpID, time.Second, time.Minute)

	for range readAttempts - 1 {
		require.NoError(t, clk.WaitAdvance(readRetryDelay, time.Second, 1))
	}

	outcome := <-out
	require.Error(t, outcome.err)
	assert.ErrorContains(t, outcome.err, "rpc unavailable")
}

var errRPCUnavailable = errors.New("rpc unavailable")
