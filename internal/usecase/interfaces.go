package usecase

import (
	"context"

	"github.com/hirepro/funnel/internal/infra/queue"
)

// GroupPostProducerInterface hands the one-time operations-group summary to
// the dispatch queue. The database transition that gates it has already
// committed by the time this is called; a publish failure is a warning, not
// a rollback.
type GroupPostProducerInterface interface {
	PublishGroupPost(ctx context.Context, payload queue.GroupPostPayload) error
}
