package models

// PresignRequest asks the service for a one-time write target.
type PresignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size"`
}

// PresignResponse is the issued upload target: a single-use PUT URL plus
// the opaque object key the analysis job will reference.
type PresignResponse struct {
	UploadURL string `json:"upload_url"`
	VideoKey  string `json:"video_key"`
}
