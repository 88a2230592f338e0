package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentdesk/internal/computer"
	"agentdesk/internal/logger"
)

// gated dispatches in order, blocking on gate for actions named "block".
type gated struct {
	mu      sync.Mutex
	order   []string
	started chan struct{}
	gate    chan struct{}
}

func newGated() *gated {
	return &gated{started: make(chan struct{}, 16), gate: make(chan struct{})}
}

func (g *gated) Dispatch(ctx context.Context, req computer.Request) (*computer.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.order = append(g.order, string(req.Action))
	g.mu.Unlock()
	g.started <- struct{}{}
	if req.Action == "block" {
		<-g.gate
	}
	return &computer.Result{Output: req.Action}, nil
}

func (g *gated) dispatched() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.order...)
}

func TestSubmitReturnsResult(t *testing.T) {
	g := newGated()
	q := New(g, 4, logger.Discard())
	defer q.Close()

	res, err := q.Submit(context.Background(), computer.Request{Action: "wait"})
	require.NoError(t, err)
	assert.Equal(t, "wait", res.Output)
}

func TestFIFO(t *testing.T) {
	g := newGated()
	q := New(g, 8, logger.Discard())
	defer q.Close()

	var wg sync.WaitGroup
	submit := func(action string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Submit(context.Background(), computer.Request{Action: action})
			assert.NoError(t, err)
		}()
	}

	submit("block")
	<-g.started

	for i, a := range []string{"a", "b", "c"} {
		submit(a)
		want := i + 1
		require.Eventually(t, func() bool { return q.Pending() == want }, time.Second, time.Millisecond)
	}

	close(g.gate)
	wg.Wait()
	assert.Equal(t, []string{"block", "a", "b", "c"}, g.dispatched())
}

func TestCancelWhileQueued(t *testing.T) {
	g := newGated()
	q := New(g, 8, logger.Discard())
	defer q.Close()

	go q.Submit(context.Background(), computer.Request{Action: "block"})
	<-g.started

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := q.Submit(ctx, computer.Request{Action: "skipped"})
		errc <- err
	}()
	require.Eventually(t, func() bool { return q.Pending() == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(g.gate)
	_, err := q.Submit(context.Background(), computer.Request{Action: "after"})
	require.NoError(t, err)
	assert.Equal(t, []string{"block", "after"}, g.dispatched())
}

func TestSubmitAfterClose(t *testing.T) {
	q := New(newGated(), 1, logger.Discard())
	q.Close()
	q.Close()

	_, err := q.Submit(context.Background(), computer.Request{Action: "wait"})
	assert.True(t, errors.Is(err, ErrClosed))
}
