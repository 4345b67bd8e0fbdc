package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/google/uuid"

	apperrors "go-video-inspector/internal/errors"
	"go-video-inspector/pkg/models"
	"go-video-inspector/pkg/validation"
)

// AzureUploader writes videos straight into a storage account container.
// Used by self-hosted deployments where the analysis service reads from the
// same account, skipping the presign round trip.
type AzureUploader struct {
	client    *azblob.Client
	container string
}

// NewAzureUploader creates an Azure-backed uploader.
func NewAzureUploader(accountName, accountKey, container string) (*AzureUploader, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &AzureUploader{client: client, container: container}, nil
}

// Upload streams the file to a block blob and returns the blob name as the
// video key. Blob names are random so repeated uploads of the same file
// never collide.
func (u *AzureUploader) Upload(ctx context.Context, stat *validation.VideoStat) (string, error) {
	file, err := os.Open(stat.Path)
	if err != nil {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("failed to open video file: %s", stat.Path), err)
	}
	defer file.Close()

	blobName := fmt.Sprintf("%s.%s", uuid.NewString(), stat.Extension)
	contentType := models.ContentTypeForExtension(stat.Extension)

	_, err = u.client.UploadStream(ctx, u.container, blobName, file, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	})
	if err != nil {
		return "", apperrors.NewNetworkError(
			"upload failed: could not write to the storage account; check your internet connection and credentials", err)
	}

	return blobName, nil
}
