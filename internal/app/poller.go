package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/jobs"
	"github.com/homeyum/yum/internal/logging"
	"github.com/homeyum/yum/internal/task"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}

// StartPoller launches the display poller if it is not already running.
// Each tick re-polls processing jobs and publishes a fresh snapshot.
func (a *App) StartPoller() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.poller.Running() {
		return
	}
	interval := a.cfg.DisplayPollInterval()
	if interval <= 0 {
		interval = defaultPollInterval
	}
	a.poller = task.Start(a.ctx, task.Options{
		Interval:  interval,
		Immediate: true,
		Backoff:   func(failures int) time.Duration { return calculateBackoff(failures, interval) },
		OnError: func(err error) {
			a.logger.Warn("display refresh failed", logging.Error(err))
		},
	}, func(ctx context.Context) (bool, error) {
		return false, a.refresh(ctx)
	})
}

// StopPoller stops the display poller and waits for it to exit.
func (a *App) StopPoller() {
	a.mu.Lock()
	h := a.poller
	a.poller = nil
	a.mu.Unlock()
	h.Stop()
}

// refresh polls every processing job once and republishes the view. While
// nothing is processing it only republishes. A feed that never loaded is
// retried here too.
func (a *App) refresh(ctx context.Context) error {
	var errs []error
	for _, t := range a.trackers() {
		if t.Job().Status != jobs.StatusProcessing {
			continue
		}
		if _, err := t.Poll(ctx); err != nil && !errors.Is(err, failure.ErrRemoteJob) {
			errs = append(errs, fmt.Errorf("poll %s job: %w", t.Kind(), err))
		}
	}
	if st := a.feed.State(); st.Len == 0 && st.LastErr != nil && !st.InFlight {
		if err := a.feed.Load(ctx); err != nil {
			errs = append(errs, fmt.Errorf("load feed: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.store.Update(nil, err)
		a.signal()
		return err
	}
	view := a.view()
	a.store.Update(&view, nil)
	a.signal()
	return nil
}
