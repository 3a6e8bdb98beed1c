package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_EnsureCreatesOnce(t *testing.T) {
	conn := &fakeConn{}
	var calls atomic.Int32
	l := newLifecycle(opener(conn, &calls))

	c1, err := l.ensure(context.Background())
	require.NoError(t, err)
	c2, err := l.ensure(context.Background())
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), l.attempts.Load())
	assert.True(t, l.initialized())
}

func TestLifecycle_ConcurrentFailureShared(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	boom := errors.New("disk full")
	l := newLifecycle(func(ctx context.Context) (Conn, error) {
		calls.Add(1)
		<-release
		return nil, boom
	})

	const k = 6
	errs := make([]error, k)
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.ensure(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, err := range errs {
		require.Error(t, err)
		assert.True(t, IsInitializationError(err))
		assert.ErrorIs(t, err, boom)
		assert.Same(t, errs[0], err)
	}
	assert.False(t, l.initialized())
}

func TestLifecycle_RetryAfterFailure(t *testing.T) {
	conn := &fakeConn{}
	var calls atomic.Int32
	l := newLifecycle(func(ctx context.Context) (Conn, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient")
		}
		return conn, nil
	})

	_, err := l.ensure(context.Background())
	require.Error(t, err)

	got, err := l.ensure(context.Background())
	require.NoError(t, err)
	assert.Same(t, conn, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLifecycle_NilConnIsFailure(t *testing.T) {
	l := newLifecycle(func(ctx context.Context) (Conn, error) {
		return nil, nil
	})

	_, err := l.ensure(context.Background())
	require.Error(t, err)
	assert.True(t, IsInitializationError(err))
	assert.ErrorIs(t, err, errNilConn)
}

func TestLifecycle_WaiterContextDoesNotFailAttempt(t *testing.T) {
	conn := &fakeConn{}
	release := make(chan struct{})
	var calls atomic.Int32
	l := newLifecycle(func(ctx context.Context) (Conn, error) {
		calls.Add(1)
		<-release
		return conn, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := l.ensure(ctx)
		errCh <- err
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	patient := make(chan error, 1)
	go func() {
		_, err := l.ensure(context.Background())
		patient <- err
	}()
	close(release)

	require.NoError(t, <-patient)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, l.initialized())
}

func TestLifecycle_CloseIdempotent(t *testing.T) {
	conn := &fakeConn{}
	var calls atomic.Int32
	l := newLifecycle(opener(conn, &calls))

	require.NoError(t, l.close())

	_, err := l.ensure(context.Background())
	require.NoError(t, err)

	require.NoError(t, l.close())
	require.NoError(t, l.close())

	assert.False(t, l.initialized())
	assert.Equal(t, int32(1), conn.closes.Load())
}

func TestLifecycle_CloseDuringOpenDiscardsConnection(t *testing.T) {
	conn := &fakeConn{}
	release := make(chan struct{})
	l := newLifecycle(func(ctx context.Context) (Conn, error) {
		<-release
		return conn, nil
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := l.ensure(context.Background())
		errCh <- err
	}()

	require.Eventually(t, func() bool { return l.attempts.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, l.close())
	close(release)

	err := <-errCh
	require.Error(t, err)
	assert.ErrorIs(t, err, errClosedDuringOpening)
	assert.False(t, l.initialized())
	assert.Equal(t, int32(1), conn.closes.Load())
}
