package report

import (
	"fmt"
	"strings"

	apperrors "go-video-inspector/internal/errors"
	"go-video-inspector/pkg/models"
)

// Formatter renders a completed analysis job into the report returned to
// the assistant. Pure projection: no network or filesystem effects.
type Formatter struct{}

// NewFormatter creates a report formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format renders the report text. A completed job without a result payload
// violates the service contract and is surfaced as a hard failure rather
// than a degraded report.
func (f *Formatter) Format(job *models.AnalysisJob) (string, error) {
	if job == nil || job.Result == nil || job.Result.Response == "" {
		return "", apperrors.NewInternalError(
			"completed job is missing its result payload; this is a service contract violation", nil)
	}

	cost := "N/A"
	if job.CostTotal > 0 {
		cost = fmt.Sprintf("$%.4f", job.CostTotal)
	}

	var b strings.Builder
	b.WriteString("## Video Analysis Report\n\n")
	b.WriteString(job.Result.Response)
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "Frames analyzed: %d | Tokens used: %d | Cost: %s\n",
		job.FramesExtracted, job.TokensUsed, cost)
	return b.String(), nil
}
