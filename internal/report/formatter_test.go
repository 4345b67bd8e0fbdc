package report

import (
	"strings"
	"testing"

	apperrors "go-video-inspector/internal/errors"
	"go-video-inspector/pkg/models"
)

func TestFormat_EmbedsResultAndStats(t *testing.T) {
	job := &models.AnalysisJob{
		ID:              "job_1",
		Status:          models.JobStatusCompleted,
		FramesExtracted: 7,
		TokensUsed:      100,
		CostTotal:       0.0123,
		Result:          &models.AnalysisResult{Response: "X"},
	}

	text, err := NewFormatter().Format(job)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	for _, want := range []string{"X", "7", "100", "$0.0123"} {
		if got := strings.Count(text, want); got != 1 {
			t.Errorf("expected %q exactly once, found %d times in:\n%s", want, got, text)
		}
	}
}

func TestFormat_ZeroCostRendersNA(t *testing.T) {
	job := &models.AnalysisJob{
		Result: &models.AnalysisResult{Response: "all good"},
	}
	text, err := NewFormatter().Format(job)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.Contains(text, "Cost: N/A") {
		t.Errorf("expected N/A cost, got:\n%s", text)
	}
	if !strings.Contains(text, "Frames analyzed: 0") || !strings.Contains(text, "Tokens used: 0") {
		t.Errorf("expected zero defaults for missing stats, got:\n%s", text)
	}
}

func TestFormat_MissingResultIsHardFailure(t *testing.T) {
	tests := []struct {
		name string
		job  *models.AnalysisJob
	}{
		{name: "nil job", job: nil},
		{name: "nil result", job: &models.AnalysisJob{Status: models.JobStatusCompleted}},
		{name: "empty response", job: &models.AnalysisJob{Result: &models.AnalysisResult{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFormatter().Format(tt.job)
			if err == nil {
				t.Fatal("expected hard failure")
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeInternal) {
				t.Errorf("expected internal error, got %v", err)
			}
		})
	}
}
