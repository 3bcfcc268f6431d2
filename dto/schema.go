package dto

import (
	"fmt"
	"sort"
	"strings"
)

// DocumentSchema names the entity types a document type uses for its
// issuance date and validity period.
type DocumentSchema struct {
	Name         string `json:"name"`
	IssuanceType string `json:"issuance_type"`
	ValidityType string `json:"validity_type"`
	// SelectMostRecent picks the latest parseable issuance mention instead
	// of the last one seen.
	SelectMostRecent bool `json:"select_most_recent"`
}

var (
	SchemaRACDA = DocumentSchema{
		Name:         "racda",
		IssuanceType: "issuance_date",
		ValidityType: "validity_period",
	}
	SchemaDAEX = DocumentSchema{
		Name:             "daex",
		IssuanceType:     "fecha_emision",
		ValidityType:     "validity_period",
		SelectMostRecent: true,
	}
)

var schemas = map[string]DocumentSchema{
	SchemaRACDA.Name: SchemaRACDA,
	SchemaDAEX.Name:  SchemaDAEX,
}

// LookupSchema resolves a schema by name, case-insensitively.
func LookupSchema(name string) (DocumentSchema, error) {
	s, ok := schemas[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return DocumentSchema{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownSchema, name, strings.Join(SchemaNames(), ", "))
	}
	return s, nil
}

// SchemaNames lists the registered schema names in sorted order.
func SchemaNames() []string {
	names := make([]string, 0, len(schemas))
	for n := range schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
