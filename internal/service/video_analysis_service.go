package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"go-video-inspector/internal/analysis"
	"go-video-inspector/internal/observer"
	"go-video-inspector/internal/report"
	"go-video-inspector/internal/storage"
	"go-video-inspector/pkg/validation"
)

// DefaultQuestion is used when the caller does not ask anything specific.
const DefaultQuestion = "Analyze this mobile app bug recording and describe what goes wrong."

// VideoAnalysisService runs the full pipeline for one tool invocation.
type VideoAnalysisService interface {
	AnalyzeVideo(ctx context.Context, videoPath, question string) (string, error)
}

// videoAnalysisService implements VideoAnalysisService. Stages run strictly
// in sequence; each depends on the prior stage's output.
type videoAnalysisService struct {
	validator  *validation.VideoValidator
	uploader   storage.Uploader
	controller *analysis.Controller
	formatter  *report.Formatter
	events     observer.Subject
}

// NewVideoAnalysisService creates the pipeline service.
func NewVideoAnalysisService(
	validator *validation.VideoValidator,
	uploader storage.Uploader,
	controller *analysis.Controller,
	formatter *report.Formatter,
	events observer.Subject,
) VideoAnalysisService {
	return &videoAnalysisService{
		validator:  validator,
		uploader:   uploader,
		controller: controller,
		formatter:  formatter,
		events:     events,
	}
}

// AnalyzeVideo validates the file, uploads it, runs the remote job to a
// terminal state and renders the report. Every failure propagates typed;
// nothing is retried here because the upload target is single-use and the
// job is server-owned.
func (s *videoAnalysisService) AnalyzeVideo(ctx context.Context, videoPath, question string) (string, error) {
	if question == "" {
		question = DefaultQuestion
	}
	invocationID := uuid.NewString()

	stat, err := s.validator.Validate(videoPath)
	if err != nil {
		s.notifyFailure(ctx, invocationID, videoPath, "", err)
		return "", err
	}

	s.notify(ctx, observer.PipelineEvent{
		EventType:    observer.UploadStarted,
		InvocationID: invocationID,
		VideoPath:    videoPath,
		Metadata:     map[string]interface{}{"size_bytes": stat.Size},
	})

	videoKey, err := s.uploader.Upload(ctx, stat)
	if err != nil {
		s.notifyFailure(ctx, invocationID, videoPath, "", err)
		return "", err
	}

	s.notify(ctx, observer.PipelineEvent{
		EventType:    observer.UploadCompleted,
		InvocationID: invocationID,
		VideoPath:    videoPath,
		Success:      true,
	})

	notifier := &eventNotifier{service: s, ctx: ctx, invocationID: invocationID, videoPath: videoPath}
	job, err := s.controller.WithNotifier(notifier).StartAndAwait(ctx, videoKey, stat.Filename(), question)
	if err != nil {
		s.notifyFailure(ctx, invocationID, videoPath, "", err)
		return "", err
	}

	text, err := s.formatter.Format(job)
	if err != nil {
		s.notifyFailure(ctx, invocationID, videoPath, job.ID, err)
		return "", err
	}

	s.notify(ctx, observer.PipelineEvent{
		EventType:    observer.AnalysisCompleted,
		InvocationID: invocationID,
		VideoPath:    videoPath,
		JobID:        job.ID,
		Success:      true,
	})
	return text, nil
}

func (s *videoAnalysisService) notify(ctx context.Context, event observer.PipelineEvent) {
	if s.events == nil {
		return
	}
	event.Timestamp = time.Now()
	s.events.NotifyObservers(ctx, event)
}

func (s *videoAnalysisService) notifyFailure(ctx context.Context, invocationID, videoPath, jobID string, err error) {
	s.notify(ctx, observer.PipelineEvent{
		EventType:    observer.AnalysisFailed,
		InvocationID: invocationID,
		VideoPath:    videoPath,
		JobID:        jobID,
		ErrorMessage: err.Error(),
	})
}

// eventNotifier bridges controller progress callbacks onto the event
// publisher for one invocation.
type eventNotifier struct {
	service      *videoAnalysisService
	ctx          context.Context
	invocationID string
	videoPath    string
}

func (n *eventNotifier) JobStarted(jobID string) {
	n.service.notify(n.ctx, observer.PipelineEvent{
		EventType:    observer.JobStarted,
		InvocationID: n.invocationID,
		VideoPath:    n.videoPath,
		JobID:        jobID,
		Success:      true,
	})
}

func (n *eventNotifier) PollProgress(jobID string, attempt int, elapsed time.Duration) {
	n.service.notify(n.ctx, observer.PipelineEvent{
		EventType:    observer.PollProgress,
		InvocationID: n.invocationID,
		VideoPath:    n.videoPath,
		JobID:        jobID,
		Metadata: map[string]interface{}{
			"attempt":         attempt,
			"elapsed_minutes": int(elapsed.Minutes()),
		},
	})
}
