package models

import (
	"errors"
	"fmt"
)

// ErrCategory classifies terminal download failures so callers and tests
// can branch on category rather than wording.
type ErrCategory int

const (
	ErrCatResolve ErrCategory = iota
	ErrCatSessionExpired
	ErrCatAlreadyDownloading
	ErrCatNetwork
	ErrCatSizeExceeded
	ErrCatCancelled
	ErrCatUpload
	ErrCatUnexpected
)

// String returns the category label used in logs and history rows.
func (c ErrCategory) String() string {
	switch c {
	case ErrCatResolve:
		return "resolve"
	case ErrCatSessionExpired:
		return "session_expired"
	case ErrCatAlreadyDownloading:
		return "already_downloading"
	case ErrCatNetwork:
		return "network"
	case ErrCatSizeExceeded:
		return "size_exceeded"
	case ErrCatCancelled:
		return "cancelled"
	case ErrCatUpload:
		return "upload"
	}
	return "unexpected"
}

// DownloadError wraps a failure with its taxonomy category.
type DownloadError struct {
	Category ErrCategory
	Err      error
}

func (e *DownloadError) Error() string {
	if e.Err == nil {
		return e.Category.String()
	}
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// NewDownloadError wraps err under the given category.
func NewDownloadError(cat ErrCategory, err error) *DownloadError {
	return &DownloadError{Category: cat, Err: err}
}

// CategoryOf extracts the category from err, ErrCatUnexpected when it
// carries none.
func CategoryOf(err error) ErrCategory {
	var de *DownloadError
	if errors.As(err, &de) {
		return de.Category
	}
	return ErrCatUnexpected
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat ErrCategory) bool {
	var de *DownloadError
	return errors.As(err, &de) && de.Category == cat
}
