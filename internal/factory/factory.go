package factory

import (
	"fmt"

	"go-video-inspector/internal/config"
	"go-video-inspector/internal/storage"
)

// UploaderFactory creates uploader backends
type UploaderFactory interface {
	CreateUploader(cfg *config.Config, issuer storage.TargetIssuer) (storage.Uploader, error)
}

// uploaderFactory implements UploaderFactory
type uploaderFactory struct{}

// NewUploaderFactory creates a new uploader factory
func NewUploaderFactory() UploaderFactory {
	return &uploaderFactory{}
}

// CreateUploader creates the uploader configured for this process.
func (f *uploaderFactory) CreateUploader(cfg *config.Config, issuer storage.TargetIssuer) (storage.Uploader, error) {
	switch cfg.UploadBackend {
	case config.UploadBackendHTTP:
		return storage.NewPresignUploader(issuer, cfg.UploadTimeout), nil
	case config.UploadBackendAzure:
		return storage.NewAzureUploader(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureUploadContainer)
	default:
		return nil, fmt.Errorf("unsupported upload backend: %s", cfg.UploadBackend)
	}
}
