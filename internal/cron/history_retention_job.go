package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/module-swap/pkg/logger"
)

const defaultHistoryRetention = 90 * 24 * time.Hour

type historyPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type HistoryRetentionJobParams struct {
	Logger    *logger.Logger
	History   historyPruner
	Retention time.Duration
}

// NewHistoryRetentionJob prunes relocation history older than the retention window.
func NewHistoryRetentionJob(params HistoryRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultHistoryRetention
	}
	return &historyRetentionJob{
		logg:      params.Logger,
		history:   params.History,
		retention: retention,
		now:       time.Now,
	}, nil
}

type historyRetentionJob struct {
	logg      *logger.Logger
	history   historyPruner
	retention time.Duration
	now       func() time.Time
}

func (j *historyRetentionJob) Name() string { return "relocation-history-retention" }

func (j *historyRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.history.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("relocation history retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "relocation history retention complete")
	return nil
}
