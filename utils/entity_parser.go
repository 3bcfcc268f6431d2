package utils

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/Aashish23092/ocr-document-validity/dto"
)

var (
	reIssuanceLabel = regexp.MustCompile(`(?i)(?:FECHA\s+(?:DE\s+)?(?:EMISI[OÓ]N|EXPEDICI[OÓ]N)|EXPEDID[OA]\s+EL|ISSUANCE\s+DATE|DATE\s+OF\s+ISSUE|ISSUE\s+DATE|ISSUED\s+ON)\s*[:\-]?\s*(.*)$`)
	reValidityLabel = regexp.MustCompile(`(?i)(?:PER[IÍ]ODO\s+DE\s+VALIDEZ|VIGENCIA|VALIDEZ|VALIDITY\s+PERIOD|VALID\s+FOR)\s*[:\-]?\s*(.*)$`)
	reQRLine        = regexp.MustCompile(`^\s*([A-Za-z_][\w ]*?)\s*[:=]\s*(.+?)\s*$`)
)

// ParseEntitiesFromText labels raw OCR text into entities of the schema's
// issuance and validity types. A label with nothing after it takes its value
// from the next non-empty line.
func ParseEntitiesFromText(text string, schema dto.DocumentSchema, confidence float64) []dto.Entity {
	lines := normalizeLines(text)
	var entities []dto.Entity

	for i := range lines {
		if value, ok := labelValue(reIssuanceLabel, lines, i); ok {
			entities = append(entities, dto.Entity{Type: schema.IssuanceType, MentionText: value, Confidence: confidence})
		}
		if value, ok := labelValue(reValidityLabel, lines, i); ok {
			entities = append(entities, dto.Entity{Type: schema.ValidityType, MentionText: value, Confidence: confidence})
		}
	}
	return entities
}

func labelValue(re *regexp.Regexp, lines []string, i int) (string, bool) {
	m := re.FindStringSubmatch(lines[i])
	if m == nil {
		return "", false
	}
	if value := strings.TrimSpace(m[1]); value != "" {
		return value, true
	}
	if i+1 < len(lines) {
		return lines[i+1], true
	}
	return "", false
}

// normalizeLines cleans and splits OCR text into lines
func normalizeLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	rawLines := strings.Split(text, "\n")

	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// ParseQRPayload reads entities from a QR code payload. The payload is either
// a JSON object of string fields or "key: value" / "key=value" lines. Keys are
// lowercased with spaces turned into underscores so they line up with the
// entity type vocabulary (fecha_emision, validity_period, ...).
func ParseQRPayload(payload string) []dto.Entity {
	fields := map[string]string{}

	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err == nil {
		for k, v := range obj {
			if s, ok := v.(string); ok {
				fields[k] = s
			}
		}
	} else {
		for _, line := range normalizeLines(payload) {
			if m := reQRLine.FindStringSubmatch(line); m != nil {
				fields[m[1]] = m[2]
			}
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entities := make([]dto.Entity, 0, len(keys))
	for _, k := range keys {
		entities = append(entities, dto.Entity{
			Type:        strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), " ", "_"),
			MentionText: strings.TrimSpace(fields[k]),
			Confidence:  1.0,
		})
	}
	return entities
}
