package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineEvent represents one progress notification from the analysis
// pipeline. Events are diagnostic only; callers must not parse them.
type PipelineEvent struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	InvocationID string                 `json:"invocation_id"`
	VideoPath    string                 `json:"video_path,omitempty"`
	JobID        string                 `json:"job_id,omitempty"`
	Success      bool                   `json:"success"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// UploadStarted when the presigned upload begins
	UploadStarted EventType = "upload_started"
	// UploadCompleted when all bytes reached the object store
	UploadCompleted EventType = "upload_completed"
	// JobStarted when the analysis job was accepted by the service
	JobStarted EventType = "job_started"
	// PollProgress emitted periodically while the job is still running
	PollProgress EventType = "poll_progress"
	// AnalysisCompleted when a job reached completed and the report rendered
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when any stage of the pipeline failed
	AnalysisFailed EventType = "analysis_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event PipelineEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event PipelineEvent)
}

// LoggingObserver renders pipeline events on the log side channel, kept
// separate from the tool's structured output stream.
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	fields := logrus.Fields{
		"event_type":    event.EventType,
		"invocation_id": event.InvocationID,
	}
	if event.VideoPath != "" {
		fields["video_path"] = event.VideoPath
	}
	if event.JobID != "" {
		fields["job_id"] = event.JobID
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case UploadStarted:
		o.logger.WithFields(fields).Info("Uploading video")
	case UploadCompleted:
		o.logger.WithFields(fields).Info("Upload complete")
	case JobStarted:
		o.logger.WithFields(fields).Info("Analysis job started")
	case PollProgress:
		o.logger.WithFields(fields).Info("Analysis still running")
	case AnalysisCompleted:
		o.logger.WithFields(fields).Info("Analysis completed")
	case AnalysisFailed:
		o.logger.WithFields(fields).Error("Analysis failed")
	default:
		o.logger.WithFields(fields).Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from pipeline events
type MetricsObserver struct {
	mu                sync.RWMutex
	totalAnalyses     int64
	completedAnalyses int64
	failedAnalyses    int64
	uploadsStarted    int64
	uploadsCompleted  int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case UploadStarted:
		o.uploadsStarted++
		o.totalAnalyses++
	case UploadCompleted:
		o.uploadsCompleted++
	case AnalysisCompleted:
		o.completedAnalyses++
	case AnalysisFailed:
		o.failedAnalyses++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return map[string]interface{}{
		"total_analyses":     o.totalAnalyses,
		"completed_analyses": o.completedAnalyses,
		"failed_analyses":    o.failedAnalyses,
		"uploads_started":    o.uploadsStarted,
		"uploads_completed":  o.uploadsCompleted,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event. Delivery is
// synchronous so that ordering matches the strictly sequential pipeline;
// observers must not block.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event PipelineEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
