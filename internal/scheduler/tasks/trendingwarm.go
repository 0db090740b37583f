package tasks

import (
	"github.com/cinescout/cinescout/internal/discovery"
	"github.com/cinescout/cinescout/internal/scheduler"
)

const TrendingWarmTaskID = "trending-warm"

// RegisterTrendingWarmTask registers the popular-list warm task with the
// scheduler. The task refreshes the first popular page in the item cache
// every 30 minutes so cold sessions start from fresh data.
func RegisterTrendingWarmTask(sched *scheduler.Scheduler, fetcher *discovery.Fetcher) error {
	return sched.RegisterTask(&scheduler.TaskConfig{
		ID:          TrendingWarmTaskID,
		Name:        "Trending Warm",
		Description: "Refreshes the cached first page of popular movies",
		Cron:        "*/30 * * * *",
		RunOnStart:  true,
		Func:        fetcher.WarmPopular,
	})
}
