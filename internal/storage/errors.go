package storage

import (
	"fmt"

	"github.com/dukerupert/balaguruva/internal/domain"
)

var (
	// ErrR2AccountIDRequired is returned when R2 account ID is missing.
	ErrR2AccountIDRequired = &domain.Error{Code: domain.EINVALID, Message: "R2 account ID is required"}

	// ErrR2CredentialsRequired is returned when R2 credentials are missing.
	ErrR2CredentialsRequired = &domain.Error{Code: domain.EINVALID, Message: "R2 credentials are required"}

	// ErrR2BucketRequired is returned when R2 bucket name is missing.
	ErrR2BucketRequired = &domain.Error{Code: domain.EINVALID, Message: "R2 bucket name is required"}

	// ErrInvalidDataURL is returned when an image upload is not a base64 data URL.
	ErrInvalidDataURL = &domain.Error{Code: domain.EINVALID, Message: "Profile image must be a base64 data:image URL"}

	// ErrUnsupportedImageType is returned for image types the storefront does not serve.
	ErrUnsupportedImageType = &domain.Error{Code: domain.EINVALID, Message: "Profile image must be PNG, JPEG, GIF or WebP"}

	// ErrImageTooLarge is returned when a decoded image exceeds MaxImageBytes.
	ErrImageTooLarge = &domain.Error{Code: domain.ETOOLARGE, Message: "Profile image is too large"}
)

// ErrFileNotFound creates an error for when a file is not found.
func ErrFileNotFound(key string) error {
	return &domain.Error{
		Code:    domain.ENOTFOUND,
		Message: fmt.Sprintf("file not found: %s", key),
	}
}

// ErrUnknownProvider creates an error for unknown storage providers.
func ErrUnknownProvider(provider string) error {
	return &domain.Error{
		Code:    domain.EINVALID,
		Message: fmt.Sprintf("unknown storage provider: %s", provider),
	}
}
