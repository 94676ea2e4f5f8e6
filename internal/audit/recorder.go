package audit

import (
	"context"

	"edm-backend/internal/worker"
	"edm-backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder writes audit entries off the request path through the worker
// pool. A failed write is logged and dropped; auditing never fails the
// operation it describes.
type Recorder struct {
	repository AuditRepository
	pool       *worker.WorkerPool
}

func NewRecorder(repository AuditRepository, pool *worker.WorkerPool) *Recorder {
	return &Recorder{repository: repository, pool: pool}
}

func (r *Recorder) Record(ctx context.Context, action, entityType string, entityID uuid.UUID, actor string) {
	entry := &AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      actor,
	}
	r.pool.Submit(func(taskCtx context.Context) error {
		if err := r.repository.Create(taskCtx, entry); err != nil {
			logger.L.Error("failed to write audit entry",
				zap.String("action", action),
				zap.String("entity_type", entityType),
				zap.Error(err))
		}
		return nil
	})
}
