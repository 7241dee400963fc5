package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// RunScheduled runs once now, then again every day at hour:minute UTC, until
// ctx is done or run returns an error.
func RunScheduled(ctx context.Context, hour, minute int, run func(context.Context) error) error {
	return runScheduled(ctx, hour, minute, time.Now, run)
}

func runScheduled(ctx context.Context, hour, minute int, now func() time.Time, run func(context.Context) error) error {
	for {
		if err := run(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		nextRun := nextRunTime(now(), hour, minute)
		waitDur := nextRun.Sub(now())
		if waitDur <= 0 {
			slog.Info("next run passed, running now", "next_run", nextRun.Format("2006-01-02 15:04"))
			continue
		}
		slog.Info("done, timer waiting", "hours", waitDur.Hours(), "until", nextRun.Format("2006-01-02 15:04"))
		timer := time.NewTimer(waitDur)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			slog.Info("stopping scheduler", "restart_at", nextRun.Format("2006-01-02 15:04"))
			return ctx.Err()
		}
	}
}

// nextRunTime is today's hour:minute UTC if still ahead of now, else tomorrow's.
func nextRunTime(now time.Time, hour, min int) time.Time {
	now = now.UTC()
	targetToday := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, time.UTC)
	if now.Before(targetToday) {
		return targetToday
	}
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, min, 0, 0, time.UTC)
}
