// Package taskqueue runs actuation resolution in the background. The
// alert trigger pipeline enqueues one task per persisted alert; a worker
// pool expands the rule's actuation actions and dispatches the resolved
// messages. Trigger callers never wait on, or learn about, this work.
package taskqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeActuationResolve is the task type for post-alert actuation
// resolution.
const TypeActuationResolve = "actuation:resolve"

// ResolvePayload identifies the alert and rule a resolution task serves.
type ResolvePayload struct {
	AccountID string `json:"accountId"`
	RuleID    string `json:"ruleId"`
	AlertID   string `json:"alertId"`
}

// Queue enqueues background tasks.
type Queue struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewQueue creates a task producer over the given Redis instance.
func NewQueue(redisAddr string, logger *zap.Logger) *Queue {
	return &Queue{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
		logger: logger,
	}
}

// EnqueueActuationResolve schedules actuation resolution for one
// persisted alert.
func (q *Queue) EnqueueActuationResolve(accountID, ruleID, alertID string) error {
	payload, err := json.Marshal(ResolvePayload{
		AccountID: accountID,
		RuleID:    ruleID,
		AlertID:   alertID,
	})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeActuationResolve, payload)
	info, err := q.client.Enqueue(task, asynq.MaxRetry(3), asynq.Timeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeActuationResolve, err)
	}
	q.logger.Debug("enqueued actuation resolution",
		zap.String("task_id", info.ID),
		zap.String("alert_id", alertID),
		zap.String("rule_id", ruleID))
	return nil
}

// Close releases the producer's Redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}
