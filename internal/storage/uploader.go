package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	apperrors "go-video-inspector/internal/errors"
	"go-video-inspector/pkg/models"
	"go-video-inspector/pkg/validation"
)

// TargetIssuer requests a one-time write target from the analysis service.
// Implemented by the API client; injected here to keep the uploader
// testable against a fake issuer.
type TargetIssuer interface {
	PresignUpload(ctx context.Context, req models.PresignRequest) (*models.PresignResponse, error)
}

// Uploader moves a validated video into the object store and returns the
// opaque key the analysis job will reference.
type Uploader interface {
	Upload(ctx context.Context, stat *validation.VideoStat) (videoKey string, err error)
}

// PresignUploader streams the file to a presigned URL issued by the API.
type PresignUploader struct {
	issuer TargetIssuer
	client *http.Client
}

// NewPresignUploader creates the default uploader.
func NewPresignUploader(issuer TargetIssuer, uploadTimeout time.Duration) *PresignUploader {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		// Uploads are large; don't let the transport buffer compress them.
		DisableCompression: true,
	}

	return &PresignUploader{
		issuer: issuer,
		client: &http.Client{
			Transport: transport,
			Timeout:   uploadTimeout,
		},
	}
}

// Upload requests an upload target and streams the file's bytes to it. The
// target is single-use: any failure here requires a fresh presign, so no
// application-level retry happens at this layer.
func (u *PresignUploader) Upload(ctx context.Context, stat *validation.VideoStat) (string, error) {
	contentType := models.ContentTypeForExtension(stat.Extension)

	target, err := u.issuer.PresignUpload(ctx, models.PresignRequest{
		Filename:    stat.Filename(),
		ContentType: contentType,
		FileSize:    stat.Size,
	})
	if err != nil {
		return "", err
	}

	file, err := os.Open(stat.Path)
	if err != nil {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("failed to open video file: %s", stat.Path), err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, file)
	if err != nil {
		return "", apperrors.NewInternalError("failed to build upload request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size

	resp, err := u.client.Do(req)
	if err != nil {
		return "", apperrors.NewNetworkError(
			"upload failed: could not reach the storage endpoint; check your internet connection", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", apperrors.FromHTTPStatus(resp.StatusCode, string(body))
	}

	return target.VideoKey, nil
}
