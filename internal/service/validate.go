package service

import (
	"fmt"
	"path/filepath"
	"strings"

	appErr "github.com/lexbrief/lexbrief/internal/pkg/errors"
)

var allowedMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"text/plain":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".txt":  {},
	".doc":  {},
	".docx": {},
}

// ValidateUpload checks the declared name, MIME type and size of an
// uploaded document before any processing happens. Browsers routinely
// mis-report MIME types for office documents, so a recognized extension
// is accepted even when the declared type is absent or generic.
func ValidateUpload(fileName, declaredMime string, size, maxSize int64) error {
	if fileName == "" || size == 0 {
		return appErr.ErrNoFile
	}
	if size > maxSize {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte limit", appErr.ErrFileTooLarge, size, maxSize)
	}
	mimeType := declaredMime
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if _, ok := allowedMimeTypes[mimeType]; ok {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := allowedExtensions[ext]; ok {
		return nil
	}
	return fmt.Errorf("%w: type %q, extension %q; accepted: pdf, txt, doc, docx", appErr.ErrUnsupportedType, declaredMime, ext)
}
