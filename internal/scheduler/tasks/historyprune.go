package tasks

import (
	"context"
	"time"

	"github.com/cinescout/cinescout/internal/history"
	"github.com/cinescout/cinescout/internal/scheduler"
)

const HistoryPruneTaskID = "history-prune"

// RegisterHistoryPruneTask registers the search history prune task with the
// scheduler. The task runs daily at 2 AM and deletes entries older than the
// retention period.
func RegisterHistoryPruneTask(sched *scheduler.Scheduler, historyService *history.Service, retention time.Duration) error {
	return sched.RegisterTask(&scheduler.TaskConfig{
		ID:          HistoryPruneTaskID,
		Name:        "History Prune",
		Description: "Deletes search history entries older than the retention period",
		Cron:        "0 2 * * *",
		RunOnStart:  false,
		Func: func(ctx context.Context) error {
			_, err := historyService.Prune(ctx, retention)
			return err
		},
	})
}
