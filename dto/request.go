package dto

import (
	"mime/multipart"
	"path/filepath"
	"strings"
)

// ExtractRequest represents an uploaded document to OCR and validate
type ExtractRequest struct {
	File   *multipart.FileHeader
	Schema string
	Save   bool
}

// Validate validates the extraction request
func (r *ExtractRequest) Validate() error {
	if r.File == nil {
		return ErrNoFile
	}
	if InferMimeType(r.File.Filename) == "" && !IsSupportedMimeType(r.File.Header.Get("Content-Type")) {
		return ErrFileType
	}
	return nil
}

// MimeType returns the declared content type, falling back to the extension.
func (r *ExtractRequest) MimeType() string {
	if ct := r.File.Header.Get("Content-Type"); IsSupportedMimeType(ct) {
		return strings.ToLower(ct)
	}
	return InferMimeType(r.File.Filename)
}

// IsSupportedMimeType checks if the MIME type is supported
func IsSupportedMimeType(mimeType string) bool {
	mimeType = strings.ToLower(mimeType)
	for _, valid := range []string{"application/pdf", "image/png", "image/jpeg", "image/jpg"} {
		if strings.Contains(mimeType, valid) {
			return true
		}
	}
	return false
}

// InferMimeType infers MIME type from file extension
func InferMimeType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return ""
}
