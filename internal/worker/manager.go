package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"snapbee/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second
)

// EventHandler processes one stream event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.Event) error
}

// Manager runs the goroutines consuming the timeline stream.
type Manager struct {
	consumer     queue.Consumer
	handler      EventHandler
	workerCount  int
	batchSize    int64
	blockTimeout time.Duration
	logger       *zap.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration
}

func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig, logger *zap.Logger) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:     consumer,
		handler:      handler,
		workerCount:  cfg.WorkerCount,
		batchSize:    cfg.BatchSize,
		blockTimeout: cfg.BlockTimeout,
		logger:       logger.With(zap.String("component", "worker_manager")),
	}
}

// Start ensures the consumer group exists and launches the workers.
// Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.consumer.EnsureGroup(ctx); err != nil {
		return err
	}

	ctx, m.cancel = context.WithCancel(ctx)
	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.run(ctx, fmt.Sprintf("worker-%d", i))
	}

	m.logger.Info("workers started", zap.Int("count", m.workerCount))
	return nil
}

// Stop cancels the workers and waits for them to return.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.logger.Info("workers stopped")
}

func (m *Manager) run(ctx context.Context, name string) {
	defer m.wg.Done()
	log := m.logger.With(zap.String("consumer", name))

	// Messages delivered to this consumer name before a crash are replayed first.
	for ctx.Err() == nil {
		messages, err := m.consumer.ReadPending(ctx, name, m.batchSize)
		if err != nil {
			log.Warn("read pending", zap.Error(err))
			break
		}
		if len(messages) == 0 {
			break
		}
		if m.handle(ctx, log, messages) == 0 {
			// nothing was acked, so the next read returns the same batch
			log.Warn("pending batch not acknowledged, resuming live reads", zap.Int("messages", len(messages)))
			break
		}
	}

	for ctx.Err() == nil {
		messages, err := m.consumer.Read(ctx, name, m.batchSize, m.blockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("read stream", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		m.handle(ctx, log, messages)
	}
}

// handle processes a batch and acknowledges every message, returning how
// many acks succeeded. Failed events are logged and dropped rather than
// retried forever.
func (m *Manager) handle(ctx context.Context, log *zap.Logger, messages []queue.Message) int {
	acked := 0
	for _, msg := range messages {
		if err := m.handler.HandleEvent(ctx, msg.Event); err != nil {
			log.Error("handle event",
				zap.String("msg_id", msg.ID),
				zap.String("type", msg.Event.Type),
				zap.Error(err),
			)
		}
		if err := m.consumer.Ack(ctx, msg.ID); err != nil {
			log.Warn("ack", zap.String("msg_id", msg.ID), zap.Error(err))
			continue
		}
		acked++
	}
	return acked
}
