package services

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"huddle/errors"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestUploadService_Store(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dir := t.TempDir()
	service := NewUploadService(log, dir, 1024, "/uploads/")

	// When a png is uploaded
	attachment, err := service.Store("<cat>.PNG", bytes.NewReader(pngHeader))

	// Then it is stored under a generated name
	req.NoError(err)
	req.True(strings.HasPrefix(attachment.URL, "/uploads/"))
	req.True(strings.HasSuffix(attachment.URL, ".png"))
	req.Equal("cat.PNG", attachment.OriginalName)
	req.Equal(int64(len(pngHeader)), attachment.Size)
	req.Equal("image/png", attachment.MimeType)

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(attachment.URL, "/uploads/")))
	req.NoError(err)
	req.Equal(pngHeader, stored)
}

func TestUploadService_Store_Rejections(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	tests := []struct {
		description string
		name        string
		data        []byte
		expected    error
		reason      string
	}{
		{"Should reject an empty file", "empty.txt", nil, errors.ErrEmptyFile, "empty_file"},
		{"Should reject a file over the limit", "big.txt", bytes.Repeat([]byte("a"), 17), errors.ErrFileTooLarge, "file_too_large"},
		{"Should reject an unknown extension", "run.exe", []byte("hello"), errors.ErrFileTypeNotAllowed, "file_type_not_allowed"},
		{"Should reject a disguised executable", "notes.txt", []byte("MZ\x90\x00\x03\x00\x00\x00\x04\x00\x00\x00\xff\xff"), errors.ErrFileTypeNotAllowed, "file_type_not_allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)
			dir := t.TempDir()
			service := NewUploadService(log, dir, 16, "/uploads/")

			_, err := service.Store(tt.name, bytes.NewReader(tt.data))

			req.ErrorIs(err, tt.expected)
			req.ErrorIs(err, errors.ErrValidationRejected)
			req.Equal(tt.reason, errors.Reason(err))
			entries, _ := os.ReadDir(dir)
			req.Empty(entries)
		})
	}
}

func TestUploadService_Store_Text(t *testing.T) {
	req := require.New(t)
	service := NewUploadService(slog.Default(), t.TempDir(), 1024, "/files/")

	attachment, err := service.Store("notes.txt", strings.NewReader("hello world"))

	req.NoError(err)
	req.True(strings.HasPrefix(attachment.MimeType, "text/plain"))
	req.True(strings.HasPrefix(attachment.URL, "/files/"))
}
