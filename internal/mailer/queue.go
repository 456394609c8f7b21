package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// TypeSendEmail is the asynq task type of an email delivery
	TypeSendEmail = "email:send"
	// QueueName is the asynq queue email tasks are put on
	QueueName = "email"
)

// enqueuer is the subset of asynq.Client used by Queue
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue hands messages over to the worker process
type Queue struct {
	client enqueuer
}

// NewQueue creates an email queue on top of an asynq client
func NewQueue(client *asynq.Client) *Queue {
	return &Queue{client: client}
}

// EnqueueEmail schedules the message for delivery
func (q *Queue) EnqueueEmail(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode email task: %w", err)
	}

	task := asynq.NewTask(TypeSendEmail, payload)
	if _, err := q.client.EnqueueContext(ctx, task, asynq.Queue(QueueName), asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}

	return nil
}

// Sender delivers a message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSendEmailHandler returns the asynq handler delivering queued messages
func NewSendEmailHandler(sender Sender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg Message
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			// A malformed payload never succeeds, so it is not retried
			return fmt.Errorf("failed to decode email task: %v: %w", err, asynq.SkipRetry)
		}
		if msg.To == "" {
			return fmt.Errorf("email task has no recipient: %w", asynq.SkipRetry)
		}

		if err := sender.Send(ctx, msg); err != nil {
			logger.Warn("email delivery failed", zap.String("to", msg.To), zap.Error(err))
			return err
		}

		logger.Info("email delivered", zap.String("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	}
}
