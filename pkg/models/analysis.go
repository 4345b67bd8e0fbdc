package models

import "strings"

// Job status values reported by the analysis service. The client never
// writes these; it only observes them while polling.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// AnalysisTypeMobileBug tags every job started by this client.
const AnalysisTypeMobileBug = "mobile_bug"

// IsTerminalStatus reports whether the service will not transition the job
// any further.
func IsTerminalStatus(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// AnalysisResult is the payload attached to a completed job.
type AnalysisResult struct {
	Response string `json:"response"`
}

// AnalysisJob mirrors the server-owned job record as observed by polling.
type AnalysisJob struct {
	ID              string          `json:"id"`
	Status          string          `json:"status"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	FramesExtracted int             `json:"frames_extracted,omitempty"`
	TokensUsed      int             `json:"tokens_used,omitempty"`
	CostTotal       float64         `json:"cost_total,omitempty"`
	Result          *AnalysisResult `json:"result,omitempty"`
}

// JobStatusResponse is the lightweight body returned by the status endpoint.
type JobStatusResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// StartAnalysisRequest starts a job for an uploaded video object.
type StartAnalysisRequest struct {
	VideoKey     string `json:"video_key"`
	Filename     string `json:"filename"`
	Question     string `json:"question"`
	AnalysisType string `json:"analysis_type"`
}

// StartAnalysisResponse carries the server-issued job id.
type StartAnalysisResponse struct {
	ID string `json:"id"`
}

// contentTypes maps the validator's extension allow-list to upload content
// types. Keys are lowercase without the leading dot.
var contentTypes = map[string]string{
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"flv":  "video/x-flv",
	"mpeg": "video/mpeg",
	"mpg":  "video/mpeg",
	"3gp":  "video/3gpp",
	"wmv":  "video/x-ms-wmv",
}

// ContentTypeForExtension resolves the upload content type for a file
// extension (with or without leading dot, any case). Unrecognized
// extensions fall back to video/mp4; that only happens if this map and the
// validator allow-list ever diverge.
func ContentTypeForExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "video/mp4"
}
