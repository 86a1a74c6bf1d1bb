package utils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_Save(t *testing.T) {
	dir := t.TempDir()
	s := &LocalStorage{Dir: dir}

	location, err := s.Save(context.Background(), "invoices/INV-1.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "invoices", "INV-1.pdf"), location)
	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	// traversal stays inside Dir
	location, err = s.Save(context.Background(), "../../escape.pdf", "application/pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.pdf"), location)

	public := &LocalStorage{Dir: dir, PublicURL: "https://files.example.ph/"}
	location, err = public.Save(context.Background(), "invoices/INV-2.pdf", "application/pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.ph/invoices/INV-2.pdf", location)
}

func TestObjectKeyFromLocation(t *testing.T) {
	cases := []struct {
		location string
		want     string
	}{
		{GetGCSObjectURL("rentals", "invoices/INV-1.pdf"), "invoices/INV-1.pdf"},
		{"https://rentals.storage.googleapis.com/invoices/INV-1.pdf", "invoices/INV-1.pdf"},
		{"gs://rentals/invoices/INV-1.pdf", "invoices/INV-1.pdf"},
		{"invoices/INV-1.pdf", "invoices/INV-1.pdf"},
		{"https://example.com/invoices/INV-1.pdf", ""},
		{"../etc/passwd", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ObjectKeyFromLocation(tc.location), tc.location)
	}
}

func TestSignDownload_LocalPassthrough(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "")
	signed, err := SignDownload(context.Background(), "storage/public/invoices/INV-1.pdf", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "storage/public/invoices/INV-1.pdf", signed.URL)
	assert.True(t, signed.ExpiresAt.IsZero())
}

func TestNewStorageFromEnv(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "gcs")
	t.Setenv("GCS_BUCKET", "")
	_, err := NewStorageFromEnv()
	assert.Error(t, err)

	t.Setenv("GCS_BUCKET", "rentals")
	s, err := NewStorageFromEnv()
	require.NoError(t, err)
	assert.Equal(t, &GCSStorage{Bucket: "rentals"}, s)

	t.Setenv("STORAGE_PROVIDER", "s3")
	_, err = NewStorageFromEnv()
	assert.Error(t, err)
}
