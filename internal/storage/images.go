package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// MaxImageBytes caps decoded profile image uploads.
const MaxImageBytes = 2 << 20

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// IsDataURL reports whether s looks like an inline data: URL rather than a
// link to an already stored file.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeImageDataURL parses "data:image/<type>;base64,<payload>".
func DecodeImageDataURL(dataURL string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	contentType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	if _, known := imageExtensions[contentType]; !known {
		return "", nil, ErrUnsupportedImageType
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return "", nil, ErrImageTooLarge
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrInvalidDataURL
	}
	if len(data) > MaxImageBytes {
		return "", nil, ErrImageTooLarge
	}
	return contentType, data, nil
}

// PutDataURL decodes an image data URL and stores it under prefix with a
// fresh name, returning the public URL.
func PutDataURL(ctx context.Context, s Storage, prefix, dataURL string) (string, error) {
	contentType, data, err := DecodeImageDataURL(dataURL)
	if err != nil {
		return "", err
	}

	key := strings.Trim(prefix, "/") + "/" + uuid.NewString() + "." + imageExtensions[contentType]
	return s.Put(ctx, key, bytes.NewReader(data), contentType)
}
