package notify

import (
	"context"
	"sync"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

// Dispatcher runs channel delivery outside the domain transaction. Failures
// of one channel never prevent the others from being attempted; every
// failure is recorded to the system log and otherwise swallowed.
type Dispatcher struct {
	log     *logger.Logger
	senders []Sender
	syslog  repos.SystemLogRepo

	queue chan Message
	wg    sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

func NewDispatcher(baseLog *logger.Logger, syslog repos.SystemLogRepo, senders []Sender, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		log:     baseLog.With("component", "NotificationDispatcher"),
		senders: senders,
		syslog:  syslog,
		queue:   make(chan Message, queueSize),
	}
}

func (d *Dispatcher) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	d.startOnce.Do(func() {
		d.log.Info("Starting notification dispatch workers", "workers", workers)
		for i := 0; i < workers; i++ {
			d.wg.Add(1)
			go d.runLoop(ctx)
		}
	})
}

// Stop closes the queue and waits for in-flight deliveries to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// Enqueue is non-blocking. On overflow the dispatch is dropped - the in-app
// row is already durable - and the drop is recorded.
func (d *Dispatcher) Enqueue(msg Message) bool {
	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn("Dispatch queue full, dropping delivery",
			"notification_id", msg.NotificationID,
			"user_id", msg.UserID,
		)
		_ = d.syslog.Record(context.Background(), nil, types.LogLevelWarn,
			"notification dispatch dropped: queue full",
			map[string]any{
				"notification_id": msg.NotificationID.String(),
				"user_id":         msg.UserID.String(),
			})
		return false
	}
}

// EnqueueAll enqueues a batch collected during a committed transaction.
func (d *Dispatcher) EnqueueAll(msgs []Message) {
	for _, msg := range msgs {
		d.Enqueue(msg)
	}
}

func (d *Dispatcher) runLoop(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-d.queue:
			if !ok {
				return
			}
			d.dispatch(ctx, msg)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, msg Message) {
	for _, sender := range d.senders {
		if !msg.wantsChannel(sender.Name()) {
			continue
		}
		if err := sender.Send(ctx, msg); err != nil {
			d.log.Warn("Channel delivery failed",
				"channel", sender.Name(),
				"user_id", msg.UserID,
				"notification_id", msg.NotificationID,
				"error", err,
			)
			_ = d.syslog.Record(ctx, nil, types.LogLevelError,
				"notification delivery failed",
				map[string]any{
					"channel":         sender.Name(),
					"user_id":         msg.UserID.String(),
					"notification_id": msg.NotificationID.String(),
					"error":           err.Error(),
				})
		}
	}
}
