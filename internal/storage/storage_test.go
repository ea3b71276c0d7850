package storage

import (
	"context"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/dukerupert/balaguruva/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImageDataURL(t *testing.T) {
	png := base64.StdEncoding.EncodeToString([]byte("\x89PNG fake"))

	tests := []struct {
		name    string
		input   string
		wantErr error
		wantCT  string
	}{
		{"png", "data:image/png;base64," + png, nil, "image/png"},
		{"jpeg", "data:image/jpeg;base64," + png, nil, "image/jpeg"},
		{"not a data url", "https://cdn.example.com/a.png", ErrInvalidDataURL, ""},
		{"missing comma", "data:image/png;base64", ErrInvalidDataURL, ""},
		{"not base64 encoded", "data:image/png," + png, ErrInvalidDataURL, ""},
		{"bad payload", "data:image/png;base64,!!!", ErrInvalidDataURL, ""},
		{"svg rejected", "data:image/svg+xml;base64," + png, ErrUnsupportedImageType, ""},
		{"too large", "data:image/png;base64," + strings.Repeat("A", (MaxImageBytes/3+10)*4), ErrImageTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, data, err := DecodeImageDataURL(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCT, ct)
			assert.Equal(t, []byte("\x89PNG fake"), data)
		})
	}
}

func TestPutDataURL_LocalStorage(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	payload := []byte("gif-bytes")
	url, err := PutDataURL(context.Background(), store, "profiles/u1",
		"data:image/gif;base64,"+base64.StdEncoding.EncodeToString(payload))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/uploads/profiles/u1/"), url)
	assert.True(t, strings.HasSuffix(url, ".gif"), url)

	key := strings.TrimPrefix(url, "/uploads/")
	exists, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../outside.txt", strings.NewReader("x"), "text/plain")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestLocalStorage_DeleteIsIdempotent(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "missing.png"))

	_, err = store.Get(context.Background(), "missing.png")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestNewR2Storage_RequiresConfig(t *testing.T) {
	_, err := NewR2Storage(context.Background(), R2Config{})
	assert.ErrorIs(t, err, ErrR2AccountIDRequired)

	_, err = NewR2Storage(context.Background(), R2Config{AccountID: "acct"})
	assert.ErrorIs(t, err, ErrR2CredentialsRequired)

	_, err = NewR2Storage(context.Background(), R2Config{AccountID: "acct", AccessKeyID: "k", SecretKey: "s"})
	assert.ErrorIs(t, err, ErrR2BucketRequired)
}
