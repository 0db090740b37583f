package tasks

import (
	"github.com/cinescout/cinescout/internal/discovery"
	"github.com/cinescout/cinescout/internal/scheduler"
)

const SessionSweepTaskID = "session-sweep"

// RegisterSessionSweepTask registers the idle session sweep task with the
// scheduler. The task removes sessions that have not been touched within
// the manager's idle TTL.
func RegisterSessionSweepTask(sched *scheduler.Scheduler, manager *discovery.Manager) error {
	return sched.RegisterTask(&scheduler.TaskConfig{
		ID:          SessionSweepTaskID,
		Name:        "Session Sweep",
		Description: "Removes sessions idle past the configured TTL",
		Cron:        "*/15 * * * *",
		RunOnStart:  false,
		Func:        manager.SweepIdle,
	})
}
