package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go-video-inspector/internal/analysis"
	apperrors "go-video-inspector/internal/errors"
	"go-video-inspector/internal/observer"
	"go-video-inspector/internal/report"
	"go-video-inspector/internal/storage"
	"go-video-inspector/pkg/models"
	"go-video-inspector/pkg/validation"
)

type instantSleeper struct{}

func (instantSleeper) Sleep(ctx context.Context, d time.Duration) error { return nil }

// mockService plays the remote analysis service and counts every request.
type mockService struct {
	mu          sync.Mutex
	presigns    int
	puts        int
	starts      int
	statusCalls int
	details     int

	completeOnPoll int
	startStatus    int
	server         *httptest.Server
}

func newMockService(t *testing.T, completeOnPoll int) *mockService {
	t.Helper()
	m := &mockService{completeOnPoll: completeOnPoll, startStatus: http.StatusOK}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockService) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload/presign":
		m.presigns++
		json.NewEncoder(w).Encode(models.PresignResponse{
			UploadURL: m.server.URL + "/put/object-1",
			VideoKey:  "object-1",
		})
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/put/"):
		m.puts++
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && r.URL.Path == "/analyze/start":
		m.starts++
		if m.startStatus != http.StatusOK {
			w.WriteHeader(m.startStatus)
			return
		}
		json.NewEncoder(w).Encode(models.StartAnalysisResponse{ID: "job_1"})
	case r.Method == http.MethodGet && r.URL.Path == "/analyze/jobs/job_1/status":
		m.statusCalls++
		status := models.JobStatusProcessing
		if m.statusCalls >= m.completeOnPoll {
			status = models.JobStatusCompleted
		}
		json.NewEncoder(w).Encode(models.JobStatusResponse{Status: status})
	case r.Method == http.MethodGet && r.URL.Path == "/analyze/jobs/job_1":
		m.details++
		json.NewEncoder(w).Encode(models.AnalysisJob{
			ID:              "job_1",
			Status:          models.JobStatusCompleted,
			FramesExtracted: 12,
			TokensUsed:      2048,
			CostTotal:       0.0451,
			Result:          &models.AnalysisResult{Response: "The crash happens when the keyboard dismisses."},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestService(m *mockService, events observer.Subject) VideoAnalysisService {
	client := analysis.NewClient(m.server.URL, "test-key", 5*time.Second)
	uploader := storage.NewPresignUploader(client, 30*time.Second)
	controller := analysis.NewController(client, analysis.ControllerOptions{
		Interval:      5 * time.Second,
		MaxAttempts:   120,
		ProgressEvery: 6,
		StatusURL:     func(jobID string) string { return m.server.URL + "/analyze/jobs/" + jobID + "/status" },
		Sleeper:       instantSleeper{},
	})
	return NewVideoAnalysisService(
		validation.NewVideoValidator(), uploader, controller, report.NewFormatter(), events)
}

func writeDemoVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAnalyzeVideo_EndToEnd(t *testing.T) {
	mock := newMockService(t, 3)
	svc := newTestService(mock, nil)

	text, err := svc.AnalyzeVideo(context.Background(), writeDemoVideo(t), "why does it crash?")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if !strings.Contains(text, "The crash happens when the keyboard dismisses.") {
		t.Errorf("expected report to contain the service response, got:\n%s", text)
	}
	if mock.presigns != 1 {
		t.Errorf("expected 1 presign call, got %d", mock.presigns)
	}
	if mock.puts != 1 {
		t.Errorf("expected 1 PUT, got %d", mock.puts)
	}
	if mock.starts != 1 {
		t.Errorf("expected 1 start call, got %d", mock.starts)
	}
	if mock.statusCalls != 3 {
		t.Errorf("expected exactly 3 status calls, got %d", mock.statusCalls)
	}
	if mock.details != 1 {
		t.Errorf("expected exactly 1 detail call, got %d", mock.details)
	}
}

func TestAnalyzeVideo_MissingFileMakesNoNetworkCalls(t *testing.T) {
	mock := newMockService(t, 1)
	svc := newTestService(mock, nil)

	_, err := svc.AnalyzeVideo(context.Background(), "/nonexistent/demo.mp4", "")
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	total := mock.presigns + mock.puts + mock.starts + mock.statusCalls + mock.details
	if total != 0 {
		t.Errorf("expected zero HTTP requests for a local rejection, got %d", total)
	}
}

func TestAnalyzeVideo_QuotaOnStartIsNotRetried(t *testing.T) {
	mock := newMockService(t, 1)
	mock.startStatus = http.StatusTooManyRequests
	svc := newTestService(mock, nil)

	_, err := svc.AnalyzeVideo(context.Background(), writeDemoVideo(t), "")
	if err == nil {
		t.Fatal("expected quota failure")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeQuota) {
		t.Errorf("expected quota error, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota") && !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("expected quota/rate-limit language, got %q", err.Error())
	}
	if mock.starts != 1 {
		t.Errorf("start must not be retried; got %d attempts", mock.starts)
	}
	if mock.statusCalls != 0 {
		t.Errorf("expected no polling after start failure, got %d", mock.statusCalls)
	}
}

// collectingObserver records events synchronously for assertions.
type collectingObserver struct {
	mu     sync.Mutex
	events []observer.PipelineEvent
}

func (o *collectingObserver) OnEvent(ctx context.Context, event observer.PipelineEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *collectingObserver) GetObserverName() string { return "collecting_observer" }

func (o *collectingObserver) types() []observer.EventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]observer.EventType, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.EventType)
	}
	return out
}

func TestAnalyzeVideo_EmitsLifecycleEvents(t *testing.T) {
	mock := newMockService(t, 1)
	events := observer.NewEventPublisher()
	collector := &collectingObserver{}
	events.Subscribe(collector)

	svc := newTestService(mock, events)
	if _, err := svc.AnalyzeVideo(context.Background(), writeDemoVideo(t), ""); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	want := []observer.EventType{
		observer.UploadStarted,
		observer.UploadCompleted,
		observer.JobStarted,
		observer.AnalysisCompleted,
	}
	got := collector.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	first := collector.events[0]
	if first.InvocationID == "" {
		t.Error("expected events to carry an invocation id")
	}
}

func TestAnalyzeVideo_ValidationFailureEmitsFailureEvent(t *testing.T) {
	mock := newMockService(t, 1)
	events := observer.NewEventPublisher()
	collector := &collectingObserver{}
	events.Subscribe(collector)

	svc := newTestService(mock, events)
	if _, err := svc.AnalyzeVideo(context.Background(), "/missing.mp4", ""); err == nil {
		t.Fatal("expected failure")
	}

	got := collector.types()
	if len(got) != 1 || got[0] != observer.AnalysisFailed {
		t.Errorf("expected a single analysis_failed event, got %v", got)
	}
}
