package services

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"huddle/domain"
	"huddle/domain/content"
	"huddle/domain/mimetypes"
	"huddle/errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IUploadService interface {
	Store(originalName string, r io.Reader) (domain.Attachment, error)
}

// UploadService ingests attachment files and returns the descriptor that
// clients then send along with a message.
type UploadService struct {
	log          *slog.Logger
	dir          string
	maxBytes     int64
	publicPrefix string
}

func NewUploadService(log *slog.Logger, dir string, maxBytes int64, publicPrefix string) *UploadService {
	return &UploadService{log: log, dir: dir, maxBytes: maxBytes, publicPrefix: publicPrefix}
}

func (s *UploadService) Store(originalName string, r io.Reader) (domain.Attachment, error) {
	extension := strings.ToLower(filepath.Ext(originalName))
	if !lo.Contains(mimetypes.Extensions, extension) {
		return domain.Attachment{}, fmt.Errorf("%w: extension %q", errors.ErrFileTypeNotAllowed, extension)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return domain.Attachment{}, errors.ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return domain.Attachment{}, errors.ErrFileTooLarge
	}

	detected := mimetype.Detect(data)
	if !isAllowed(detected) {
		return domain.Attachment{}, fmt.Errorf("%w: detected %s", errors.ErrFileTypeNotAllowed, detected.String())
	}

	if err = os.MkdirAll(s.dir, 0o755); err != nil {
		return domain.Attachment{}, fmt.Errorf("create upload dir: %w", err)
	}
	name := uuid.NewString() + extension
	if err = os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return domain.Attachment{}, fmt.Errorf("write upload: %w", err)
	}
	s.log.Debug("Upload stored", "name", name, "size", len(data), "mimetype", detected.String())

	return domain.Attachment{
		URL:          s.publicPrefix + name,
		OriginalName: content.Sanitize(filepath.Base(originalName)),
		Size:         int64(len(data)),
		MimeType:     detected.String(),
	}, nil
}

// isAllowed walks up the detected type hierarchy, so a subtype of an allowed type passes.
func isAllowed(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if mimetypes.IsAttachable(m.String()) {
			return true
		}
	}
	return false
}
