package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/color-vibe/backend/pkg/queue"
)

// pollTimeout bounds one blocking dequeue so Run notices cancellation.
const pollTimeout = 5 * time.Second

// Jobs is the queue side the processor consumes.
type Jobs interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Deleter removes an uploaded share code.
type Deleter interface {
	Delete(ctx context.Context, eventID string) error
}

// QRCleaner processes share-code deletion jobs left behind by removed events.
type QRCleaner struct {
	deleter Deleter
	queue   Jobs
	backoff time.Duration
	logger  *zap.Logger
}

// NewQRCleaner creates a share-code cleanup processor.
func NewQRCleaner(deleter Deleter, q Jobs, logger *zap.Logger) *QRCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QRCleaner{deleter: deleter, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one deletion job.
func (p *QRCleaner) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeQRDelete {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.QRDeletePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.EventID == "" {
		return fmt.Errorf("job %s has no event id", job.ID)
	}
	if err := p.deleter.Delete(ctx, payload.EventID); err != nil {
		return fmt.Errorf("delete share code: %w", err)
	}
	p.logger.Info("share code removed", zap.String("event_id", payload.EventID))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *QRCleaner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("share cleanup worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *QRCleaner) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
