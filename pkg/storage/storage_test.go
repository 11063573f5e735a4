package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	key := "avatars/abc.jpg"
	require.NoError(t, s.Write(ctx, key, bytes.NewReader([]byte("jpeg")), 4, "image/jpeg"))

	rc, err := s.Read(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "jpeg", string(data))

	assert.Equal(t, "/uploads/avatars/abc.jpg", s.URL(key))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Read(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is fine.
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	s, err := NewLocalStorage(LocalConfig{BasePath: filepath.Join(base, "uploads")})
	require.NoError(t, err)

	err = s.Write(ctx, "../escape.txt", bytes.NewReader([]byte("x")), 1, "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, statErr := os.Stat(filepath.Join(base, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalURLPrefix(t *testing.T) {
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir(), URLPrefix: "files/"})
	require.NoError(t, err)

	assert.Equal(t, "/files/covers/x.jpg", s.URL("covers/x.jpg"))
	assert.Equal(t, "/files/covers/x.jpg", s.URL("/covers/x.jpg"))
}

func TestS3BaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"public url", S3Config{Bucket: "media", PublicURL: "https://cdn.example.com/"}, "https://cdn.example.com"},
		{"minio endpoint", S3Config{Bucket: "media", Endpoint: "http://localhost:9000"}, "http://localhost:9000/media"},
		{"aws", S3Config{Bucket: "media", Region: "ap-southeast-1"}, "https://media.s3.ap-southeast-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s3BaseURL(tt.cfg))
		})
	}

	s := &S3Storage{baseURL: "http://localhost:9000/media"}
	assert.Equal(t, "http://localhost:9000/media/avatars/1.jpg", s.URL("avatars/1.jpg"))
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(context.Background(), Config{Type: "ftp"})
	assert.Error(t, err)
}
