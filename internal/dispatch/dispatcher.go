// Package dispatch keeps a local board in sync with the server. Moves are
// applied to the local board at once and their batches are sent in the
// background, one at a time, in the order the moves were made.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/board"
	"taskboard/internal/model"
)

// ErrClosed is returned by Move after Close.
var ErrClosed = errors.New("dispatcher closed")

// Store is the remote side of the board: the task list fetch and the bulk
// update call.
type Store interface {
	ListTasks(ctx context.Context, workspaceID uuid.UUID) ([]model.Task, error)
	BulkUpdate(ctx context.Context, batch board.Batch) error
}

type Option func(*Dispatcher)

func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithOnError registers a callback for failed bulk updates and refetches.
// It runs on the worker goroutine and may call Close; it must not call Wait.
func WithOnError(fn func(error)) Option {
	return func(d *Dispatcher) { d.onError = fn }
}

// WithOnSync registers a callback run each time a refetch replaces the board.
// The same rules as for WithOnError apply.
func WithOnSync(fn func(board.Partition)) Option {
	return func(d *Dispatcher) { d.onSync = fn }
}

// WithCallTimeout bounds every store call made by the worker.
func WithCallTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

type Dispatcher struct {
	store       Store
	workspaceID uuid.UUID
	logger      *log.Logger
	onError     func(error)
	onSync      func(board.Partition)
	timeout     time.Duration

	wakeCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	mu         sync.Mutex
	board      board.Partition
	queue      []board.Batch
	generation uint64
	busy       int
	idle       chan struct{}
	closed     bool
	callbacks  int
}

func New(store Store, workspaceID uuid.UUID, opts ...Option) *Dispatcher {
	if store == nil {
		panic("dispatch.New: store is nil")
	}

	d := &Dispatcher{
		store:       store,
		workspaceID: workspaceID,
		logger:      log.StandardLogger(),
		timeout:     30 * time.Second,
		wakeCh:      make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		board:       board.Build(nil),
		idle:        make(chan struct{}),
	}
	close(d.idle)

	for _, opt := range opts {
		opt(d)
	}

	go d.run()
	return d
}

// Refresh fetches the workspace tasks and replaces the board wholesale.
// Local moves whose batches are still queued disappear from the board until
// the refetch that follows them. A worker refetch already in flight is
// discarded so it cannot overwrite the refreshed board.
func (d *Dispatcher) Refresh(ctx context.Context) error {
	tasks, err := d.store.ListTasks(ctx, d.workspaceID)
	if err != nil {
		return err
	}

	next := board.Build(tasks)
	d.mu.Lock()
	d.board = next
	d.generation++
	d.mu.Unlock()
	return nil
}

// Board returns the current board. The caller must not modify it.
func (d *Dispatcher) Board() board.Partition {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.board
}

// Move applies the gesture to the local board and queues its batch. Invalid
// gestures leave the board untouched and return an error wrapping
// board.ErrInvalidMove. A gesture that changes nothing returns an empty batch.
func (d *Dispatcher) Move(src board.Slot, dst *board.Slot) (board.Batch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	next, batch, err := board.Move(d.board, src, dst)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, nil
	}

	d.board = next
	d.generation++
	d.queue = append(d.queue, batch)
	d.markBusy()

	select {
	case d.wakeCh <- struct{}{}:
	default:
	}
	return batch, nil
}

// Wait blocks until every queued batch has been sent and the follow-up
// refetch is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	for {
		d.mu.Lock()
		if d.busy == 0 {
			d.mu.Unlock()
			return nil
		}
		idle := d.idle
		d.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting moves and drops batches that were not sent yet. A
// batch already in flight completes, but its outcome is ignored.
//
// Close waits for the worker to stop, except while a callback is running:
// the worker may be the caller, so it is left to exit on its own.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	wait := d.callbacks == 0
	if d.closed {
		d.mu.Unlock()
		if wait {
			<-d.doneCh
		}
		return
	}
	d.closed = true
	if dropped := len(d.queue); dropped > 0 {
		d.logger.WithField("batches", dropped).Warn("dispatch: dropping unsent batches")
		d.queue = nil
		d.busy -= dropped
		if d.busy == 0 {
			close(d.idle)
		}
	}
	d.mu.Unlock()

	close(d.stopCh)
	if wait {
		<-d.doneCh
	}
}

func (d *Dispatcher) run() {
	defer close(d.doneCh)
	for {
		select {
		case <-d.stopCh:
			return
		case <-d.wakeCh:
		}

		for {
			batch, ok := d.dequeue()
			if !ok {
				break
			}
			d.process(batch)
		}
	}
}

func (d *Dispatcher) dequeue() (board.Batch, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil, false
	}
	batch := d.queue[0]
	d.queue = d.queue[1:]
	return batch, true
}

func (d *Dispatcher) process(batch board.Batch) {
	defer d.markDone()

	ctx, cancel := d.callContext()
	err := d.store.BulkUpdate(ctx, batch)
	cancel()

	if d.isClosed() {
		return
	}

	if err != nil {
		d.logger.WithError(err).WithField("updates", len(batch)).Warn("dispatch: bulk update failed")
		d.reportError(err)
		if d.isClosed() {
			return
		}
		// The local board may now disagree with the server.
		d.refetch()
		return
	}

	if d.queueEmpty() {
		d.refetch()
	}
}

// refetch replaces the board with the server's view unless a newer move was
// made while the fetch was in flight.
func (d *Dispatcher) refetch() {
	d.mu.Lock()
	generation := d.generation
	d.mu.Unlock()

	ctx, cancel := d.callContext()
	tasks, err := d.store.ListTasks(ctx, d.workspaceID)
	cancel()
	if err != nil {
		if d.isClosed() {
			return
		}
		d.logger.WithError(err).Warn("dispatch: refetch failed")
		d.reportError(err)
		return
	}

	next := board.Build(tasks)

	d.mu.Lock()
	if d.closed || d.generation != generation {
		d.mu.Unlock()
		d.logger.Debug("dispatch: discarding stale refetch")
		return
	}
	d.board = next
	d.mu.Unlock()

	if d.onSync != nil {
		d.callback(func() { d.onSync(next) })
	}
}

func (d *Dispatcher) callContext() (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d.timeout)
}

func (d *Dispatcher) reportError(err error) {
	if d.onError != nil {
		d.callback(func() { d.onError(err) })
	}
}

// callback runs fn with callbacks counted, so Close called from fn does not
// wait for the worker that is running it.
func (d *Dispatcher) callback(fn func()) {
	d.mu.Lock()
	d.callbacks++
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.callbacks--
		d.mu.Unlock()
	}()
	fn()
}

func (d *Dispatcher) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Dispatcher) queueEmpty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue) == 0
}

// markBusy must be called with mu held.
func (d *Dispatcher) markBusy() {
	if d.busy == 0 {
		d.idle = make(chan struct{})
	}
	d.busy++
}

func (d *Dispatcher) markDone() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy--
	if d.busy == 0 {
		close(d.idle)
	}
}
