package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var ErrQueueFull = errors.New("continuation queue is full")

type taskKind int

const (
	batchTask taskKind = iota
	sweepTask
)

type task struct {
	kind    taskKind
	jobID   string
	storeID string
	afterID int64
}

// Handlers run the scheduled work. Errors are the handler's to log.
type Handlers struct {
	Batch func(ctx context.Context, jobID string)
	Sweep func(ctx context.Context, storeID string, afterID int64)
}

type DispatcherConfig struct {
	Workers   int
	QueueSize int
}

// Dispatcher runs continuations in process on a fixed set of workers fed by
// a buffered queue. Scheduling never blocks the caller.
type Dispatcher struct {
	tasks  chan task
	cfg    DispatcherConfig
	logger zerolog.Logger

	once sync.Once
	wg   sync.WaitGroup
}

func NewDispatcher(cfg DispatcherConfig, logger zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Dispatcher{
		tasks:  make(chan task, cfg.QueueSize),
		cfg:    cfg,
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

func (d *Dispatcher) ScheduleBatch(ctx context.Context, jobID string) error {
	return d.enqueue(ctx, task{kind: batchTask, jobID: jobID})
}

func (d *Dispatcher) ScheduleSweep(ctx context.Context, storeID string, afterID int64) error {
	return d.enqueue(ctx, task{kind: sweepTask, storeID: storeID, afterID: afterID})
}

func (d *Dispatcher) enqueue(ctx context.Context, t task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case d.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers once. They stop when ctx is cancelled; queued
// tasks left behind are picked up later by the stalled-job resumer.
func (d *Dispatcher) Start(ctx context.Context, handlers Handlers) {
	d.once.Do(func() {
		for i := 0; i < d.cfg.Workers; i++ {
			d.wg.Add(1)
			go d.workerLoop(ctx, handlers)
		}
	})
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) workerLoop(ctx context.Context, handlers Handlers) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-d.tasks:
			d.run(ctx, handlers, t)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, handlers Handlers, t task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Str("job_id", t.jobID).Str("store_id", t.storeID).Msg("continuation panicked")
		}
	}()

	switch t.kind {
	case batchTask:
		if handlers.Batch != nil {
			handlers.Batch(ctx, t.jobID)
		}
	case sweepTask:
		if handlers.Sweep != nil {
			handlers.Sweep(ctx, t.storeID, t.afterID)
		}
	}
}
