package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/Aashish23092/ocr-document-validity/dto"
	"github.com/Aashish23092/ocr-document-validity/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ValidityHandler handles document validity requests
type ValidityHandler struct {
	processor     *service.DocumentProcessor
	defaultSchema dto.DocumentSchema
	maxFileSize   int64
}

// NewValidityHandler creates a new ValidityHandler instance
func NewValidityHandler(processor *service.DocumentProcessor, defaultSchema dto.DocumentSchema, maxFileSize int64) *ValidityHandler {
	return &ValidityHandler{
		processor:     processor,
		defaultSchema: defaultSchema,
		maxFileSize:   maxFileSize,
	}
}

// Compute handles POST /validity/compute with already extracted entities
func (h *ValidityHandler) Compute(c *gin.Context) {
	var req dto.ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	schema, err := h.schema(req.Schema)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Unknown schema", err)
		return
	}

	resp, err := h.processor.Compute(req, schema, queryBool(c, "save"))
	if err != nil {
		if errors.Is(err, dto.ErrNoEntities) || errors.Is(err, dto.ErrInvalidDate) {
			h.sendError(c, http.StatusBadRequest, "Invalid request", err)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "Failed to compute validity", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Extract handles POST /validity/extract with a single uploaded document
func (h *ValidityHandler) Extract(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "File is required", dto.ErrNoFile)
		return
	}

	req := dto.ExtractRequest{
		File:   file,
		Schema: c.PostForm("schema"),
		Save:   formBool(c, "save"),
	}
	if err := req.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid file", err)
		return
	}

	schema, err := h.schema(req.Schema)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Unknown schema", err)
		return
	}

	doc, status, err := h.readDocument(file)
	if err != nil {
		h.sendError(c, status, "Failed to read uploaded file", err)
		return
	}

	log.Info().Str("file", file.Filename).Str("schema", schema.Name).Msg("processing document")
	resp, err := h.processor.Process(c.Request.Context(), doc, c.PostForm("password"), schema, req.Save)
	if err != nil {
		if errors.Is(err, dto.ErrNoText) {
			h.sendError(c, http.StatusUnprocessableEntity, "No text found in document", err)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "Failed to process document", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Batch handles POST /validity/batch with several uploaded documents
func (h *ValidityHandler) Batch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Multipart form is required", err)
		return
	}

	files := form.File["files[]"]
	if len(files) == 0 {
		files = form.File["files"]
	}
	if len(files) == 0 {
		h.sendError(c, http.StatusBadRequest, "At least one file is required", dto.ErrNoFile)
		return
	}

	schema, err := h.schema(c.PostForm("schema"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Unknown schema", err)
		return
	}

	docs := make([]service.Document, 0, len(files))
	for _, file := range files {
		req := dto.ExtractRequest{File: file}
		if err := req.Validate(); err != nil {
			h.sendError(c, http.StatusBadRequest, fmt.Sprintf("Invalid file %s", file.Filename), err)
			return
		}
		doc, status, err := h.readDocument(file)
		if err != nil {
			h.sendError(c, status, "Failed to read uploaded file", err)
			return
		}
		docs = append(docs, doc)
	}

	log.Info().Int("files", len(docs)).Str("schema", schema.Name).Msg("processing batch")
	c.JSON(http.StatusOK, h.processor.ProcessBatch(c.Request.Context(), docs, schema, formBool(c, "save")))
}

func (h *ValidityHandler) readDocument(file *multipart.FileHeader) (service.Document, int, error) {
	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		return service.Document{}, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%s is %d bytes, limit is %d", file.Filename, file.Size, h.maxFileSize)
	}

	reader, err := file.Open()
	if err != nil {
		return service.Document{}, http.StatusInternalServerError, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return service.Document{}, http.StatusInternalServerError, err
	}

	req := dto.ExtractRequest{File: file}
	return service.Document{
		Filename: file.Filename,
		MimeType: req.MimeType(),
		Data:     data,
	}, http.StatusOK, nil
}

func (h *ValidityHandler) schema(name string) (dto.DocumentSchema, error) {
	if name == "" {
		return h.defaultSchema, nil
	}
	return dto.LookupSchema(name)
}

// sendError sends an error response
func (h *ValidityHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Warn().Err(err).Int("status", statusCode).Msg(message)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "DOCUMENT_VALIDITY_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}

func formBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.PostForm(key))
	return v
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}
