package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Reloader replaces the event collection from its source.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Refresher re-points live workspaces at the current collection.
type Refresher interface {
	Refresh()
}

// Dispatcher sends due reminders and reports how many went out.
type Dispatcher interface {
	Run(ctx context.Context) int
}

// Sweeper drops idle workspaces.
type Sweeper interface {
	Sweep(now time.Time) int
}

// RefreshEvents reloads the source and, on success, refreshes every
// workspace. A failed reload keeps the previous collection.
func RefreshEvents(spec string, cal Reloader, workspaces Refresher) Job {
	return Job{
		Name: "refresh-events",
		Spec: spec,
		Run: func(ctx context.Context) {
			if err := cal.Reload(ctx); err != nil {
				slog.Error("event refresh failed", slog.Any("error", err))
				return
			}
			workspaces.Refresh()
		},
	}
}

// DispatchReminders delivers reminders that have come due.
func DispatchReminders(spec string, d Dispatcher) Job {
	return Job{
		Name: "dispatch-reminders",
		Spec: spec,
		Run: func(ctx context.Context) {
			d.Run(ctx)
		},
	}
}

// SweepWorkspaces ends sessions idle past their TTL.
func SweepWorkspaces(spec string, s Sweeper) Job {
	return Job{
		Name: "sweep-workspaces",
		Spec: spec,
		Run: func(ctx context.Context) {
			s.Sweep(time.Now())
		},
	}
}
