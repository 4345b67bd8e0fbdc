package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "go-video-inspector/internal/errors"
	"go-video-inspector/pkg/models"
	"go-video-inspector/pkg/validation"
)

type fakeIssuer struct {
	calls    int
	lastReq  models.PresignRequest
	response *models.PresignResponse
	err      error
}

func (f *fakeIssuer) PresignUpload(ctx context.Context, req models.PresignRequest) (*models.PresignResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func tempVideo(t *testing.T, name, content string) *validation.VideoStat {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	stat, err := validation.NewVideoValidator().Validate(path)
	if err != nil {
		t.Fatalf("validate %s: %v", path, err)
	}
	return stat
}

func TestPresignUploader_StreamsBytesToTarget(t *testing.T) {
	var (
		putCalls    int
		gotBody     []byte
		contentType string
		contentLen  int64
	)
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		putCalls++
		contentType = r.Header.Get("Content-Type")
		contentLen = r.ContentLength
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	issuer := &fakeIssuer{response: &models.PresignResponse{UploadURL: target.URL, VideoKey: "vid_123"}}
	uploader := NewPresignUploader(issuer, 30*time.Second)

	stat := tempVideo(t, "bug.mov", "fake video bytes")
	key, err := uploader.Upload(context.Background(), stat)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if key != "vid_123" {
		t.Errorf("expected video key vid_123, got %q", key)
	}
	if issuer.calls != 1 || putCalls != 1 {
		t.Errorf("expected 1 presign and 1 PUT, got %d and %d", issuer.calls, putCalls)
	}
	if string(gotBody) != "fake video bytes" {
		t.Errorf("uploaded bytes do not match the file: %q", gotBody)
	}
	if contentType != "video/quicktime" {
		t.Errorf("expected video/quicktime for .mov, got %q", contentType)
	}
	if contentLen != stat.Size {
		t.Errorf("expected Content-Length %d, got %d", stat.Size, contentLen)
	}
	if issuer.lastReq.Filename != "bug.mov" || issuer.lastReq.FileSize != stat.Size {
		t.Errorf("presign request carried wrong metadata: %+v", issuer.lastReq)
	}
}

func TestPresignUploader_NoRetryOnPutFailure(t *testing.T) {
	var putCalls int
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		putCalls++
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer target.Close()

	issuer := &fakeIssuer{response: &models.PresignResponse{UploadURL: target.URL, VideoKey: "vid_123"}}
	uploader := NewPresignUploader(issuer, 30*time.Second)

	_, err := uploader.Upload(context.Background(), tempVideo(t, "bug.mp4", "bytes"))
	if err == nil {
		t.Fatal("expected upload failure")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeServer) {
		t.Errorf("expected server error classification, got %v", err)
	}
	if putCalls != 1 {
		t.Errorf("upload must not retry; got %d PUT attempts", putCalls)
	}
}

func TestPresignUploader_PresignFailurePropagates(t *testing.T) {
	issuer := &fakeIssuer{err: apperrors.FromHTTPStatus(429, "quota")}
	uploader := NewPresignUploader(issuer, 30*time.Second)

	_, err := uploader.Upload(context.Background(), tempVideo(t, "bug.mp4", "bytes"))
	if !apperrors.IsType(err, apperrors.ErrorTypeQuota) {
		t.Errorf("expected quota error from presign to propagate, got %v", err)
	}
}

func TestPresignUploader_UnreachableTargetIsNetworkError(t *testing.T) {
	issuer := &fakeIssuer{response: &models.PresignResponse{UploadURL: "http://192.0.2.1:1/put", VideoKey: "k"}}
	uploader := NewPresignUploader(issuer, 300*time.Millisecond)

	_, err := uploader.Upload(context.Background(), tempVideo(t, "bug.mp4", "bytes"))
	if !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		t.Errorf("expected network error, got %v", err)
	}
}
