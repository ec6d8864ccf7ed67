package jobs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/homeyum/yum/internal/api"
	"github.com/homeyum/yum/internal/failure"
	"github.com/homeyum/yum/internal/logging"
	"github.com/homeyum/yum/internal/task"
)

// Backend is the part of the recipe API the tracker drives.
type Backend interface {
	CreateJob(ctx context.Context, kind api.JobKind, source string) (api.JobResponse, error)
	FetchJob(ctx context.Context, id string) (api.JobResponse, error)
	LatestJob(ctx context.Context, kind api.JobKind) (api.JobResponse, bool, error)
	ReviseJob(ctx context.Context, id string, req api.RevisionRequest) (api.JobResponse, error)
	ConfirmJob(ctx context.Context, id string) (api.JobResponse, error)
}

// Persister remembers the active job id per kind so a restarted client can
// resume tracking.
type Persister interface {
	SaveActiveJob(kind, jobID string) error
	ActiveJob(kind string) (string, bool, error)
	ClearActiveJob(kind string) error
}

// VideoErrorMessage replaces confirm failures caused by the video renderer.
const VideoErrorMessage = "Unable to create recipe video at this time. Our team has been notified and is working on a fix."

// DefaultPollInterval is the job poll cadence while processing.
const DefaultPollInterval = 2 * time.Second

// Options configure a Tracker.
type Options struct {
	Kind         Kind
	Backend      Backend
	Persist      Persister
	Logger       *slog.Logger
	PollInterval time.Duration
	// OnChange receives a copy of the job after every state change. It runs
	// on the goroutine that caused the change and must not call Reset,
	// Submit or Close.
	OnChange func(Job)
}

// Tracker follows one remote job of a fixed kind through submission,
// polling and terminal state.
type Tracker struct {
	kind     Kind
	backend  Backend
	persist  Persister
	logger   *slog.Logger
	interval time.Duration
	onChange func(Job)
	sampler  *logging.ProgressSampler

	ctx    context.Context
	cancel context.CancelFunc
	flight singleflight.Group

	mu      sync.Mutex
	job     Job
	gen     uint64 // bumped whenever the tracked job is replaced
	issued  uint64 // last poll sequence handed out
	applied uint64 // last poll sequence written into job
	poller  *task.Handle
	changed chan struct{}
}

// NewTracker constructs an idle tracker.
func NewTracker(opts Options) *Tracker {
	kind := opts.Kind
	if kind == "" {
		kind = KindLinkImport
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		kind:     kind,
		backend:  opts.Backend,
		persist:  opts.Persist,
		logger:   logging.NewComponentLogger(opts.Logger, "jobs").With(logging.String(logging.FieldKind, string(kind))),
		interval: interval,
		onChange: opts.OnChange,
		sampler:  logging.NewProgressSampler(25),
		ctx:      ctx,
		cancel:   cancel,
		job:      Job{Kind: kind, Status: StatusIdle},
		changed:  make(chan struct{}),
	}
}

// Kind reports the job kind this tracker handles.
func (t *Tracker) Kind() Kind { return t.kind }

// Job returns a copy of the current job.
func (t *Tracker) Job() Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.job.Clone()
}

// Polling reports whether the background poller is running.
func (t *Tracker) Polling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.poller.Running()
}

// Submit starts a new job. Empty input fails with a validation error and
// makes no network call.
func (t *Tracker) Submit(ctx context.Context, input string) (Job, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		msg := "please enter a video URL"
		if t.kind == KindManualPrompt {
			msg = "please describe the recipe"
		}
		return t.Job(), failure.Validation("jobs", "submit", msg)
	}
	if t.backend == nil {
		return t.Job(), failure.Validation("jobs", "submit", "no backend configured")
	}

	t.stopPolling()
	gen := t.replace(Job{Kind: t.kind, Status: StatusProcessing, Steps: PendingSteps(t.kind)})

	resp, err := t.backend.CreateJob(ctx, t.kind, input)

	t.mu.Lock()
	if gen != t.gen {
		job := t.job.Clone()
		t.mu.Unlock()
		t.logger.Debug("submission superseded")
		return job, nil
	}
	if err != nil {
		t.job.Status = StatusFailed
		t.job.Error = userMessage(err)
		job := t.job.Clone()
		t.mu.Unlock()
		t.logger.Warn("job submission failed", logging.Error(err))
		t.notify(job)
		return job, failure.Wrap(failure.MarkerOf(err), "jobs", "submit", "create job", err)
	}
	job := FromResponse(resp, t.kind)
	t.job = job
	t.mu.Unlock()

	t.logger.Info("job submitted", logging.String(logging.FieldJobID, job.ID))
	t.remember(job)
	t.notify(job.Clone())
	if !job.Status.Terminal() && job.ID != "" {
		t.StartPolling()
	}
	return job.Clone(), nil
}

// Poll fetches the job status once. It is a no-op without a job id or once
// the job is terminal. Concurrent callers share one request, and a response
// older than the last applied one is discarded.
func (t *Tracker) Poll(ctx context.Context) (Job, error) {
	v, err, _ := t.flight.Do("poll", func() (any, error) {
		return t.pollOnce(ctx)
	})
	job, _ := v.(Job)
	return job.Clone(), err
}

func (t *Tracker) pollOnce(ctx context.Context) (Job, error) {
	t.mu.Lock()
	if t.job.ID == "" || t.job.Status.Terminal() || t.job.Status == StatusIdle || t.backend == nil {
		job := t.job.Clone()
		t.mu.Unlock()
		return job, nil
	}
	gen := t.gen
	t.issued++
	seq := t.issued
	id := t.job.ID
	t.mu.Unlock()

	resp, err := t.backend.FetchJob(ctx, id)

	t.mu.Lock()
	if gen != t.gen || seq <= t.applied {
		job := t.job.Clone()
		t.mu.Unlock()
		t.logger.Debug("stale poll response dropped", logging.Uint64("seq", seq))
		return job, nil
	}
	if err != nil {
		if errors.Is(err, failure.ErrNotFound) {
			t.applied = seq
			t.job.Status = StatusFailed
			t.job.Error = "recipe job not found"
			job := t.job.Clone()
			t.mu.Unlock()
			t.forget()
			t.notify(job)
			return job, failure.Wrap(failure.ErrRemoteJob, "jobs", "poll", job.Error, err)
		}
		job := t.job.Clone()
		t.mu.Unlock()
		return job, err
	}

	t.applied = seq
	next := FromResponse(resp, t.kind)
	if next.ID == "" {
		next.ID = id
	}
	t.job = next
	job := next.Clone()
	percent := Progress(job.Steps, WeightsFor(job.Kind))
	logProgress := t.sampler.ShouldLog(percent, CurrentStep(job.Steps))
	t.mu.Unlock()

	if logProgress {
		t.logger.Info("job progress",
			logging.String(logging.FieldJobID, job.ID),
			logging.Int("progress", percent),
			logging.String("step", CurrentStep(job.Steps)),
		)
	}
	if job.Status.Terminal() {
		t.forget()
	}
	t.notify(job)

	if job.Status == StatusFailed {
		t.logger.Warn("job failed", logging.String(logging.FieldJobID, job.ID), logging.String("reason", job.Error))
		return job, failure.Wrap(failure.ErrRemoteJob, "jobs", "poll", job.Error, nil)
	}
	return job, nil
}

// StartPolling launches the background poller if it is not already running.
// The poller exits by itself once the job is terminal or authentication is
// lost; transport errors are logged and retried on the next tick.
func (t *Tracker) StartPolling() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.poller.Running() || t.ctx.Err() != nil {
		return
	}
	t.poller = task.Start(t.ctx, task.Options{
		Interval: t.interval,
		OnError: func(err error) {
			if failure.IsRetryable(err) {
				t.logger.Warn("job poll failed; retrying", logging.Error(err))
			}
		},
	}, func(ctx context.Context) (bool, error) {
		job, err := t.Poll(ctx)
		if job.Status.Terminal() || job.ID == "" || job.Status == StatusIdle {
			return true, nil
		}
		if errors.Is(err, failure.ErrAuth) {
			t.logger.Warn("job polling stopped", logging.Error(err))
			return true, nil
		}
		return false, err
	})
}

func (t *Tracker) stopPolling() {
	t.mu.Lock()
	h := t.poller
	t.poller = nil
	t.mu.Unlock()
	h.Stop()
}

// Reset stops polling and returns the tracker to idle.
func (t *Tracker) Reset() {
	t.stopPolling()
	job := Job{Kind: t.kind, Status: StatusIdle}
	t.replace(job)
	t.forget()
	t.notify(job)
}

// Resume restores tracking of jobID, or of the persisted or most recent job
// when jobID is empty, and resumes polling unless it is terminal.
func (t *Tracker) Resume(ctx context.Context, jobID string) (Job, error) {
	if t.backend == nil {
		return t.Job(), failure.Validation("jobs", "resume", "no backend configured")
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" && t.persist != nil {
		if id, ok, err := t.persist.ActiveJob(string(t.kind)); err != nil {
			t.logger.Warn("active job lookup failed", logging.Error(err))
		} else if ok {
			jobID = id
		}
	}
	if jobID == "" {
		resp, ok, err := t.backend.LatestJob(ctx, t.kind)
		if err != nil {
			return t.Job(), err
		}
		if !ok {
			return t.Job(), nil
		}
		jobID = resp.JobID
	}

	t.stopPolling()
	t.replace(Job{ID: jobID, Kind: t.kind, Status: StatusProcessing, Steps: PendingSteps(t.kind)})
	job, err := t.Poll(ctx)
	if err != nil && !errors.Is(err, failure.ErrRemoteJob) {
		t.logger.Warn("resume poll failed", logging.String(logging.FieldJobID, jobID), logging.Error(err))
	}
	if !job.Status.Terminal() && !errors.Is(err, failure.ErrAuth) {
		t.remember(job)
		t.StartPolling()
	}
	if errors.Is(err, failure.ErrRemoteJob) {
		// Surfaced through job.Error.
		err = nil
	}
	return job, err
}

// Revise asks the pipeline to regenerate a draft recipe and/or its image.
func (t *Tracker) Revise(ctx context.Context, recipeUpdates, imageUpdates string) (Job, error) {
	req := api.RevisionRequest{
		RecipeUpdates: strings.TrimSpace(recipeUpdates),
		ImageUpdates:  strings.TrimSpace(imageUpdates),
	}
	if req.RecipeUpdates == "" && req.ImageUpdates == "" {
		return t.Job(), failure.Validation("jobs", "revise", "describe what to change")
	}
	return t.review(ctx, "revise", func(id string) (api.JobResponse, error) {
		return t.backend.ReviseJob(ctx, id, req)
	})
}

// Confirm finalizes a draft recipe. On failure the previous state is restored
// and the error is surfaced, rewritten when the video renderer was at fault.
func (t *Tracker) Confirm(ctx context.Context) (Job, error) {
	return t.review(ctx, "confirm", func(id string) (api.JobResponse, error) {
		return t.backend.ConfirmJob(ctx, id)
	})
}

func (t *Tracker) review(ctx context.Context, op string, call func(id string) (api.JobResponse, error)) (Job, error) {
	t.mu.Lock()
	prev := t.job.Clone()
	if prev.ID == "" || !prev.Draft || t.backend == nil {
		t.mu.Unlock()
		return prev, failure.Validation("jobs", op, "no recipe data available to confirm")
	}
	gen := t.gen
	t.job.Status = StatusProcessing
	t.job.Draft = false
	t.job.Error = ""
	pending := t.job.Clone()
	t.mu.Unlock()
	t.notify(pending)

	resp, err := call(prev.ID)

	t.mu.Lock()
	if gen != t.gen {
		job := t.job.Clone()
		t.mu.Unlock()
		return job, nil
	}
	if err != nil {
		restored := prev
		restored.Error = userMessage(err)
		t.job = restored
		job := restored.Clone()
		t.mu.Unlock()
		t.logger.Warn("recipe "+op+" failed", logging.String(logging.FieldJobID, prev.ID), logging.Error(err))
		t.notify(job)
		return job, failure.Wrap(failure.ErrMutation, "jobs", op, job.Error, err)
	}
	next := FromResponse(resp, t.kind)
	if next.ID == "" {
		next.ID = prev.ID
	}
	t.issued++
	t.applied = t.issued
	t.job = next
	job := next.Clone()
	t.mu.Unlock()

	t.notify(job)
	if !job.Status.Terminal() {
		t.StartPolling()
	}
	return job, nil
}

// Wait blocks until the job is terminal or idle, or ctx ends.
func (t *Tracker) Wait(ctx context.Context) (Job, error) {
	for {
		t.mu.Lock()
		job := t.job.Clone()
		ch := t.changed
		t.mu.Unlock()
		if job.Status.Terminal() || job.Status == StatusIdle {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ch:
		}
	}
}

// Close stops polling for good.
func (t *Tracker) Close() {
	t.cancel()
	t.stopPolling()
}

func (t *Tracker) replace(job Job) uint64 {
	t.mu.Lock()
	t.gen++
	t.job = job
	t.sampler.Reset()
	gen := t.gen
	t.mu.Unlock()
	t.notify(job.Clone())
	return gen
}

func (t *Tracker) notify(job Job) {
	t.mu.Lock()
	close(t.changed)
	t.changed = make(chan struct{})
	t.mu.Unlock()
	if t.onChange != nil {
		t.onChange(job)
	}
}

func (t *Tracker) remember(job Job) {
	if t.persist == nil || job.ID == "" || job.Status.Terminal() {
		return
	}
	if err := t.persist.SaveActiveJob(string(t.kind), job.ID); err != nil {
		t.logger.Warn("persist active job failed", logging.Error(err))
	}
}

func (t *Tracker) forget() {
	if t.persist == nil {
		return
	}
	if err := t.persist.ClearActiveJob(string(t.kind)); err != nil {
		t.logger.Warn("clear active job failed", logging.Error(err))
	}
}

// userMessage turns an error into text fit for the job error line.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if strings.Contains(msg, "video_url") || strings.Contains(msg, "Could not read image") {
		return VideoErrorMessage
	}
	if errors.Is(err, failure.ErrAuth) {
		return "not authenticated"
	}
	var status *failure.StatusError
	if errors.As(err, &status) && status.Message != "" {
		return status.Message
	}
	return msg
}
