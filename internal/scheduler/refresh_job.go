package scheduler

import (
	"context"
	"errors"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/usecase"
)

// Refresher is satisfied by usecase.Coordinator.
type Refresher interface {
	Refresh(ctx context.Context) (models.Snapshot, error)
}

// RefreshJob polls the portfolio once per tick.
type RefreshJob struct {
	refresher Refresher
}

func NewRefreshJob(r Refresher) *RefreshJob {
	return &RefreshJob{refresher: r}
}

func (j *RefreshJob) Name() string { return "refresh" }

// Run treats a refresh held by another instance, or one cut short by
// shutdown, as done.
func (j *RefreshJob) Run(ctx context.Context) error {
	_, err := j.refresher.Refresh(ctx)
	if errors.Is(err, usecase.ErrRefreshInProgress) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
