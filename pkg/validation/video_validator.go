package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "go-video-inspector/internal/errors"
)

// MaxVideoSizeBytes is the upload ceiling enforced before any network call.
const MaxVideoSizeBytes int64 = 524288000 // 500 MiB

// defaultAllowedFormats is the extension allow-list, lowercase without dots.
var defaultAllowedFormats = []string{
	"mp4", "mov", "webm", "avi", "mkv", "flv", "mpeg", "mpg", "3gp", "wmv",
}

// DefaultAllowedFormats returns a copy of the default allow-list.
func DefaultAllowedFormats() []string {
	out := make([]string, len(defaultAllowedFormats))
	copy(out, defaultAllowedFormats)
	return out
}

// VideoStat describes an approved local video file.
type VideoStat struct {
	Path      string
	Size      int64
	Extension string // lowercase, without the leading dot
}

// Filename returns the base name used for presign and job start requests.
func (s *VideoStat) Filename() string {
	return filepath.Base(s.Path)
}

// VideoValidator checks a local path before any bytes leave the machine.
type VideoValidator struct {
	maxSizeBytes   int64
	allowedFormats []string
}

// NewVideoValidator creates a validator with the default limits.
func NewVideoValidator() *VideoValidator {
	return &VideoValidator{
		maxSizeBytes:   MaxVideoSizeBytes,
		allowedFormats: defaultAllowedFormats,
	}
}

// NewVideoValidatorWithOptions creates a validator with custom limits.
func NewVideoValidatorWithOptions(maxSizeBytes int64, formats []string) *VideoValidator {
	return &VideoValidator{
		maxSizeBytes:   maxSizeBytes,
		allowedFormats: formats,
	}
}

// AllowedFormats returns the extension allow-list for display.
func (v *VideoValidator) AllowedFormats() []string {
	return v.allowedFormats
}

// Validate approves a path or returns a validation error whose message
// carries everything the caller needs to fix the input. Checks run in a
// fixed order and short-circuit on the first failure.
func (v *VideoValidator) Validate(path string) (*VideoStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("permission denied reading video file: %s", path), err)
		}
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("video file not found: %s", path), err)
	}

	if info.IsDir() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("path is a directory, not a video file: %s", path), nil)
	}
	if !info.Mode().IsRegular() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("path is not a regular file: %s", path), nil)
	}

	size := info.Size()
	if size == 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("video file is empty: %s", path), nil)
	}
	if size > v.maxSizeBytes {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("video file is too large: %d bytes (max %d bytes / %d MiB)",
				size, v.maxSizeBytes, v.maxSizeBytes/(1024*1024)), nil)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !v.isFormatAllowed(ext) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported video format %q: supported formats are %s",
				ext, strings.Join(v.allowedFormats, ", ")), nil)
	}

	return &VideoStat{Path: path, Size: size, Extension: ext}, nil
}

func (v *VideoValidator) isFormatAllowed(ext string) bool {
	for _, allowed := range v.allowedFormats {
		if ext == allowed {
			return true
		}
	}
	return false
}
