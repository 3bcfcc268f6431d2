package utils

import (
	"testing"

	"github.com/Aashish23092/ocr-document-validity/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntitiesFromText(t *testing.T) {
	text := `
		REPUBLICA DE COLOMBIA
		REGISTRO DE ACTIVIDAD
		Fecha de Emisión: 0 3 SFP 2025
		Vigencia: CINCO (5) AÑOS
		Firma autorizada
	`

	entities := ParseEntitiesFromText(text, dto.SchemaRACDA, 0.82)

	require.Len(t, entities, 2)
	assert.Equal(t, dto.Entity{Type: "issuance_date", MentionText: "0 3 SFP 2025", Confidence: 0.82}, entities[0])
	assert.Equal(t, dto.Entity{Type: "validity_period", MentionText: "CINCO (5) AÑOS", Confidence: 0.82}, entities[1])
}

func TestParseEntitiesValueOnNextLine(t *testing.T) {
	text := "FECHA DE EXPEDICION\n\n21/05/2025\nPERIODO DE VALIDEZ:\n2 AÑOS"

	entities := ParseEntitiesFromText(text, dto.SchemaDAEX, 0.5)

	require.Len(t, entities, 2)
	assert.Equal(t, "fecha_emision", entities[0].Type)
	assert.Equal(t, "21/05/2025", entities[0].MentionText)
	assert.Equal(t, "validity_period", entities[1].Type)
	assert.Equal(t, "2 AÑOS", entities[1].MentionText)
}

func TestParseEntitiesEnglishLabels(t *testing.T) {
	entities := ParseEntitiesFromText("Date of issue - 14 AUG 2022\nIssued on 01/02/2023", dto.SchemaRACDA, 1)

	require.Len(t, entities, 2)
	assert.Equal(t, "14 AUG 2022", entities[0].MentionText)
	assert.Equal(t, "01/02/2023", entities[1].MentionText)
}

func TestParseEntitiesNoLabels(t *testing.T) {
	assert.Empty(t, ParseEntitiesFromText("nothing to see here\n12/12/2012", dto.SchemaRACDA, 1))
	assert.Empty(t, ParseEntitiesFromText("", dto.SchemaRACDA, 1))
	assert.Empty(t, ParseEntitiesFromText("VIGENCIA", dto.SchemaRACDA, 1))
}

func TestParseQRPayloadJSON(t *testing.T) {
	entities := ParseQRPayload(`{"issuance_date": "2024-01-10", "validity_period": "(3) AÑOS", "serial": 123}`)

	assert.Equal(t, []dto.Entity{
		{Type: "issuance_date", MentionText: "2024-01-10", Confidence: 1},
		{Type: "validity_period", MentionText: "(3) AÑOS", Confidence: 1},
	}, entities)
}

func TestParseQRPayloadLines(t *testing.T) {
	entities := ParseQRPayload("Fecha Emision: 21/05/2025\nvalidity_period=5 AÑOS\ngarbage line")

	assert.Equal(t, []dto.Entity{
		{Type: "fecha_emision", MentionText: "21/05/2025", Confidence: 1},
		{Type: "validity_period", MentionText: "5 AÑOS", Confidence: 1},
	}, entities)
}
