// Package worker serializes actions onto one device.
//
// The cursor and keyboard are a single shared resource, so every transport
// submits through one Queue and a single goroutine performs the actions in
// the order they were accepted.
package worker

import (
	"context"
	"errors"
	"sync"

	"agentdesk/internal/computer"
	"agentdesk/internal/logger"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker queue closed")

// Dispatcher performs one action. *computer.Computer implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req computer.Request) (*computer.Result, error)
}

type outcome struct {
	res *computer.Result
	err error
}

type job struct {
	ctx  context.Context
	req  computer.Request
	done chan outcome
}

// Queue runs submitted actions one at a time, first in first out.
type Queue struct {
	d   Dispatcher
	log *logger.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan *job
	wg     sync.WaitGroup
}

// New starts the worker goroutine. size bounds how many actions may wait.
func New(d Dispatcher, size int, log *logger.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if log == nil {
		log = logger.New()
	}
	q := &Queue{
		d:    d,
		log:  log,
		jobs: make(chan *job, size),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for j := range q.jobs {
		res, err := q.d.Dispatch(j.ctx, j.req)
		if err != nil {
			q.log.Debug("action %s failed: %v", computer.Describe(j.req), err)
		}
		j.done <- outcome{res: res, err: err}
	}
}

// Submit enqueues req and waits for its result. If ctx ends while the job is
// still waiting, Submit returns ctx.Err() and the worker skips the job when
// it gets to it. A job that has started runs to completion regardless.
func (q *Queue) Submit(ctx context.Context, req computer.Request) (*computer.Result, error) {
	j := &job{ctx: ctx, req: req, done: make(chan outcome, 1)}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return nil, ErrClosed
	}
	select {
	case q.jobs <- j:
	case <-ctx.Done():
		q.mu.RUnlock()
		return nil, ctx.Err()
	}
	q.mu.RUnlock()

	select {
	case o := <-j.done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pending reports how many jobs are waiting behind the running one.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Close stops accepting work, lets queued jobs finish and waits for the
// worker to exit. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
