package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/catalog-hub/catalog-service/internal/events"
	"github.com/catalog-hub/catalog-service/internal/service"
)

// ErrActivityQueueFull is returned by Handle when the worker cannot keep up.
var ErrActivityQueueFull = errors.New("activity queue full")

const appendTimeout = 2 * time.Second

// ActivitySink persists auth events outside the process.
type ActivitySink interface {
	Append(ctx context.Context, event events.Event) error
}

// ActivityWorker forwards published auth events to a sink on its own goroutine so
// request handlers never wait on the sink.
type ActivityWorker struct {
	sink   ActivitySink
	logger *zap.Logger
	queue  chan events.Event

	started  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
}

// NewActivityWorker builds a worker holding at most buffer pending events.
func NewActivityWorker(sink ActivitySink, buffer int, logger *zap.Logger) *ActivityWorker {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityWorker{
		sink:   sink,
		logger: logger,
		queue:  make(chan events.Event, buffer),
		done:   make(chan struct{}),
	}
}

// Handle enqueues the event without blocking. It satisfies events.EventHandler.
func (w *ActivityWorker) Handle(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrActivityQueueFull
	}
}

// Start drains the queue until Stop is called.
func (w *ActivityWorker) Start() {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(w.done)
		for event := range w.queue {
			ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.Warn("append auth activity",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
			cancel()
		}
	}()
}

// Stop flushes pending events and waits for the drain loop to exit. Handle must not be
// called afterwards.
func (w *ActivityWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.queue)
		if w.started.Load() {
			<-w.done
		}
	})
}

// StartActivityWorker registers the activity log handlers and, when a worker is given,
// starts it and subscribes it to every auth event.
func StartActivityWorker(dispatcher events.Dispatcher, activityService *service.ActivityService, worker *ActivityWorker) {
	if activityService != nil {
		activityService.RegisterHandlers()
	}
	if dispatcher == nil || worker == nil {
		return
	}
	worker.Start()
	for _, eventType := range events.AuthEventTypes() {
		dispatcher.Subscribe(eventType, worker.Handle)
	}
}
