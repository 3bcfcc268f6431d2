package dto

import "errors"

// Custom errors
var (
	ErrInvalidDate   = errors.New("invalid calendar date")
	ErrNoEntities    = errors.New("at least one entity is required")
	ErrUnknownSchema = errors.New("unknown document schema")
	ErrNoFile        = errors.New("file is required")
	ErrFileType      = errors.New("invalid file type. Supported: PDF, PNG, JPG")
	ErrNoText        = errors.New("no text could be extracted from the document")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
