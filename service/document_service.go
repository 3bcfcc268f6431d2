package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"strings"
	"time"

	"github.com/Aashish23092/ocr-document-validity/dto"
	"github.com/Aashish23092/ocr-document-validity/metrics"
	"github.com/Aashish23092/ocr-document-validity/utils"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/rs/zerolog/log"
)

// Extraction sources reported in ValidityResponse.Source.
const (
	SourcePDFText  = "pdf_text"
	SourceOCR      = "ocr"
	SourceQR       = "qr"
	SourceEntities = "entities"
)

// OCRClient is the part of client.TesseractClient the extractor needs.
type OCRClient interface {
	ExtractTextAndQuality(image []byte) (string, float64, error)
}

// Extraction is the entity list read from one document.
type Extraction struct {
	Entities []dto.Entity
	Source   string
	Text     string
}

// EntityExtractor turns an uploaded document into typed entity mentions.
type EntityExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType, password string, schema dto.DocumentSchema) (*Extraction, error)
}

// OCREntityExtractor reads embedded PDF text first, then QR codes, then
// falls back to Tesseract over the page images.
type OCREntityExtractor struct {
	ocr     OCRClient
	pdf     PDFProcessor
	metrics *metrics.Metrics
}

func NewOCREntityExtractor(ocr OCRClient, pdf PDFProcessor, m *metrics.Metrics) *OCREntityExtractor {
	return &OCREntityExtractor{
		ocr:     ocr,
		pdf:     pdf,
		metrics: m,
	}
}

func (e *OCREntityExtractor) Extract(ctx context.Context, data []byte, mimeType, password string, schema dto.DocumentSchema) (*Extraction, error) {
	start := time.Now()

	var (
		ext *Extraction
		err error
	)
	if strings.Contains(mimeType, "pdf") {
		ext, err = e.extractPDF(ctx, data, password, schema)
	} else {
		ext, err = e.extractImage(ctx, data, mimeType, schema)
	}
	if err != nil {
		return nil, err
	}

	e.metrics.ObserveExtraction(ext.Source, start)
	log.Info().
		Str("schema", schema.Name).
		Str("source", ext.Source).
		Int("entities", len(ext.Entities)).
		Dur("took", time.Since(start)).
		Msg("entities extracted")
	return ext, nil
}

func (e *OCREntityExtractor) extractPDF(ctx context.Context, data []byte, password string, schema dto.DocumentSchema) (*Extraction, error) {
	text, err := e.pdf.ExtractText(data, password)
	if err != nil {
		log.Warn().Err(err).Msg("pdf text layer unreadable, trying page images")
	}
	if entities := utils.ParseEntitiesFromText(text, schema, 1); len(entities) > 0 {
		return &Extraction{Entities: entities, Source: SourcePDFText, Text: text}, nil
	}

	// Scanned PDF: no usable text layer
	images, err := e.pdf.ExtractImages(data, password)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}
	if len(images) == 0 {
		if strings.TrimSpace(text) == "" {
			return nil, dto.ErrNoText
		}
		return &Extraction{Source: SourcePDFText, Text: text}, nil
	}

	for _, img := range images {
		if entities := qrEntities(img, schema); len(entities) > 0 {
			return &Extraction{Entities: entities, Source: SourceQR}, nil
		}
	}

	pages := make([][]byte, 0, len(images))
	for idx, img := range images {
		buf := new(bytes.Buffer)
		if err := png.Encode(buf, img); err != nil {
			log.Warn().Err(err).Int("page", idx+1).Msg("failed to encode page image")
			continue
		}
		pages = append(pages, buf.Bytes())
	}
	return e.ocrPages(ctx, pages, schema)
}

func (e *OCREntityExtractor) extractImage(ctx context.Context, data []byte, mimeType string, schema dto.DocumentSchema) (*Extraction, error) {
	img, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if entities := qrEntities(img, schema); len(entities) > 0 {
		return &Extraction{Entities: entities, Source: SourceQR}, nil
	}
	return e.ocrPages(ctx, [][]byte{data}, schema)
}

// ocrPages runs OCR on every page and labels the combined text. Entity
// confidence is the mean Tesseract word confidence scaled to 0-1.
func (e *OCREntityExtractor) ocrPages(ctx context.Context, pages [][]byte, schema dto.DocumentSchema) (*Extraction, error) {
	if e.ocr == nil {
		return nil, errors.New("ocr client not configured")
	}

	var (
		fullText  strings.Builder
		totalConf float64
		read      int
		lastErr   error
	)
	for idx, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, conf, err := e.ocr.ExtractTextAndQuality(page)
		if err != nil {
			log.Warn().Err(err).Int("page", idx+1).Msg("page OCR failed")
			lastErr = err
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString("\n")
		totalConf += conf
		read++
	}

	text := fullText.String()
	if strings.TrimSpace(text) == "" {
		if lastErr != nil {
			return nil, fmt.Errorf("OCR extraction failed: %w", lastErr)
		}
		return nil, dto.ErrNoText
	}
	log.Debug().Int("pages", read).Int("chars", len(text)).Msg("OCR text extracted")

	confidence := math.Round(totalConf/float64(read)) / 100
	return &Extraction{
		Entities: utils.ParseEntitiesFromText(text, schema, confidence),
		Source:   SourceOCR,
		Text:     text,
	}, nil
}

// qrEntities decodes a QR code in img and keeps the fields the schema reads.
func qrEntities(img image.Image, schema dto.DocumentSchema) []dto.Entity {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return nil
	}
	log.Debug().Int("bytes", len(result.GetText())).Msg("QR code decoded")

	var entities []dto.Entity
	for _, ent := range utils.ParseQRPayload(result.GetText()) {
		if ent.Type == schema.IssuanceType || ent.Type == schema.ValidityType {
			entities = append(entities, ent)
		}
	}
	return entities
}

func decodeImage(data []byte, mimeType string) (image.Image, error) {
	reader := bytes.NewReader(data)

	if strings.Contains(mimeType, "png") {
		return png.Decode(reader)
	} else if strings.Contains(mimeType, "jpeg") || strings.Contains(mimeType, "jpg") {
		return jpeg.Decode(reader)
	}

	img, _, err := image.Decode(reader)
	return img, err
}
