package client

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog/log"
)

// TesseractClient runs Tesseract OCR over document images.
type TesseractClient struct {
	dataPath  string
	languages []string
}

// NewTesseractClient creates a client. languages uses Tesseract's "+" syntax,
// e.g. "spa+eng".
func NewTesseractClient(dataPath, languages string) *TesseractClient {
	langs := strings.Split(languages, "+")
	if languages == "" {
		langs = []string{"spa", "eng"}
	}
	return &TesseractClient{
		dataPath:  dataPath,
		languages: langs,
	}
}

// ExtractTextAndQuality extracts text from encoded image bytes (PNG, JPEG) and
// returns the mean word confidence on a 0-100 scale.
func (tc *TesseractClient) ExtractTextAndQuality(image []byte) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		client.SetTessdataPrefix(tc.dataPath)
	}
	if err := client.SetLanguage(tc.languages...); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	// Bounding boxes carry per-word confidence
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		log.Warn().Err(err).Msg("tesseract bounding boxes unavailable, confidence set to 0")
		return text, 0, nil
	}

	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}
	avg := 0.0
	if len(boxes) > 0 {
		avg = total / float64(len(boxes))
	}

	return text, avg, nil
}

// Close performs cleanup
func (tc *TesseractClient) Close() {
	log.Debug().Msg("Tesseract client closed")
}
