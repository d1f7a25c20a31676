package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/notifications"
	"github.com/planner-suite/backend/internal/realtime"
	"github.com/planner-suite/backend/pkg/queue"
)

// NotificationProcessor drains the notification queue: each job becomes a
// persisted notification row and a push on the recipient's realtime
// channel.
type NotificationProcessor struct {
	repo   *notifications.Repository
	pub    realtime.Publisher
	queue  *queue.Queue
	logger *zap.Logger
}

// NewNotificationProcessor creates a notification dispatch processor.
// pub may be nil when realtime push is disabled.
func NewNotificationProcessor(repo *notifications.Repository, pub realtime.Publisher, q *queue.Queue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{repo: repo, pub: pub, queue: q, logger: logger}
}

// Process executes one notification dispatch job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	n := &models.Notification{
		UserID:      payload.UserID,
		Type:        payload.Type,
		Title:       payload.Title,
		Message:     payload.Message,
		RelatedType: payload.RelatedType,
		RelatedID:   payload.RelatedID,
	}
	if err := p.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	// Push is best effort. The row is already persisted, so a user with no
	// open connection picks it up from the unread list.
	if p.pub != nil {
		data, err := json.Marshal(n)
		if err == nil {
			if err := p.pub.PublishUserEvent(payload.UserID, "notification", data); err != nil {
				p.logger.Warn("realtime push failed", zap.Error(err), zap.String("notification_id", n.ID.String()))
			}
		}
	}

	p.logger.Info("notification dispatched",
		zap.String("notification_id", n.ID.String()),
		zap.String("user_id", payload.UserID.String()),
		zap.String("type", string(payload.Type)))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
