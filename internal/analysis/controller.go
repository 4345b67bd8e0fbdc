package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "go-video-inspector/internal/errors"
	"go-video-inspector/pkg/models"
)

// JobAPI is the slice of the API client the controller needs. Narrowed to
// an interface so the poll loop is testable against a scripted service.
type JobAPI interface {
	StartAnalysis(ctx context.Context, req models.StartAnalysisRequest) (string, error)
	GetJobStatus(ctx context.Context, jobID string) (*models.JobStatusResponse, error)
	GetJob(ctx context.Context, jobID string) (*models.AnalysisJob, error)
}

// Sleeper suspends between poll attempts. The default implementation waits
// on a timer; tests substitute an instant one.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper waits cooperatively so a serving process is never blocked on
// a bare sleep.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProgressNotifier receives poll progress callbacks. Injected so the
// controller has no dependency on a specific output stream.
type ProgressNotifier interface {
	JobStarted(jobID string)
	PollProgress(jobID string, attempt int, elapsed time.Duration)
}

// Controller starts a remote analysis job and polls it to a terminal state
// under a bounded attempt budget.
type Controller struct {
	api           JobAPI
	interval      time.Duration
	maxAttempts   int
	progressEvery int
	statusURL     func(jobID string) string
	sleeper       Sleeper
	notifier      ProgressNotifier
}

// ControllerOptions configures the poll loop.
type ControllerOptions struct {
	Interval      time.Duration
	MaxAttempts   int
	ProgressEvery int
	StatusURL     func(jobID string) string
	Sleeper       Sleeper
	Notifier      ProgressNotifier
}

// NewController creates a job controller.
func NewController(api JobAPI, opts ControllerOptions) *Controller {
	if opts.Sleeper == nil {
		opts.Sleeper = TimerSleeper{}
	}
	if opts.StatusURL == nil {
		opts.StatusURL = func(jobID string) string { return jobID }
	}
	return &Controller{
		api:           api,
		interval:      opts.Interval,
		maxAttempts:   opts.MaxAttempts,
		progressEvery: opts.ProgressEvery,
		statusURL:     opts.StatusURL,
		sleeper:       opts.Sleeper,
		notifier:      opts.Notifier,
	}
}

// WithNotifier returns a copy of the controller using the given notifier.
// Notifiers are per-invocation, so the shared controller stays free of
// cross-invocation mutable state.
func (c *Controller) WithNotifier(n ProgressNotifier) *Controller {
	clone := *c
	clone.notifier = n
	return &clone
}

// StartAndAwait starts a job for the uploaded object and polls until the
// job completes, fails, or the attempt budget runs out. Start failures
// surface immediately; nothing in here retries.
func (c *Controller) StartAndAwait(ctx context.Context, videoKey, filename, question string) (*models.AnalysisJob, error) {
	jobID, err := c.api.StartAnalysis(ctx, models.StartAnalysisRequest{
		VideoKey:     videoKey,
		Filename:     filename,
		Question:     question,
		AnalysisType: models.AnalysisTypeMobileBug,
	})
	if err != nil {
		return nil, err
	}
	if c.notifier != nil {
		c.notifier.JobStarted(jobID)
	}

	return c.await(ctx, jobID)
}

// await runs the poll loop. Checks occur strictly in sequence, each fully
// completing before the next begins.
func (c *Controller) await(ctx context.Context, jobID string) (*models.AnalysisJob, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.sleeper.Sleep(ctx, c.interval); err != nil {
			return nil, apperrors.NewTimeoutError(
				fmt.Sprintf("stopped waiting for job %s; check status manually at %s",
					jobID, c.statusURL(jobID)), err)
		}

		status, err := c.api.GetJobStatus(ctx, jobID)
		if err != nil {
			// The remote job may still complete after we give up, so a
			// dropped connection must not silently keep polling.
			if isConnectivity(err) {
				return nil, apperrors.NewLostConnectionError(
					fmt.Sprintf("lost connection while waiting for job %s; the job may still be processing, check status at %s",
						jobID, c.statusURL(jobID)), err)
			}
			return nil, err
		}

		switch status.Status {
		case models.JobStatusCompleted:
			job, err := c.api.GetJob(ctx, jobID)
			if err != nil {
				return nil, err
			}
			return job, nil
		case models.JobStatusFailed:
			msg := status.ErrorMessage
			if msg == "" {
				msg = "no error details provided"
			}
			return nil, apperrors.NewJobFailedError(
				fmt.Sprintf("analysis failed for job %s: %s (quote this job id when contacting support)", jobID, msg), nil)
		}

		if c.notifier != nil && c.progressEvery > 0 && attempt%c.progressEvery == 0 {
			c.notifier.PollProgress(jobID, attempt, time.Duration(attempt)*c.interval)
		}
	}

	elapsed := time.Duration(c.maxAttempts) * c.interval
	return nil, apperrors.NewTimeoutError(
		fmt.Sprintf("analysis did not finish within %s for job %s; the job may still complete, check status at %s",
			elapsed.Round(time.Minute), jobID, c.statusURL(jobID)), nil)
}

// isConnectivity reports whether an API error was a transport failure
// rather than an HTTP response from the service.
func isConnectivity(err error) bool {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeNetwork {
		return false
	}
	return apperrors.IsConnectivityError(appErr.Cause)
}
