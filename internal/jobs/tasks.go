// internal/jobs/tasks.go
package jobs

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/mcgboard/permits-backend/internal/services"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeExpirySweep walks every APPROVED permit and expires the
	// overdue ones.
	TaskTypeExpirySweep = "permits:expiry_sweep"
)

// NewExpirySweepTask constructs the periodic sweep task. The sweep carries
// no payload; it always covers the full APPROVED set.
func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeExpirySweep, nil)
}

// TaskHandlers binds task types to the services that execute them.
type TaskHandlers struct {
	permits *services.PermitService
	log     *logrus.Logger
}

func NewTaskHandlers(permits *services.PermitService, log *logrus.Logger) *TaskHandlers {
	return &TaskHandlers{permits: permits, log: log}
}

// HandleExpirySweep processes TaskTypeExpirySweep tasks. The sweep is
// idempotent, so a retried task is harmless.
func (h *TaskHandlers) HandleExpirySweep(ctx context.Context, t *asynq.Task) error {
	expired, err := h.permits.RunExpirySweep(ctx)
	if err != nil {
		h.log.WithError(err).Error("expiry sweep failed")
		return err
	}
	h.log.WithField("expired", expired).Info("expiry sweep completed")
	return nil
}
