package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Aashish23092/ocr-document-validity/dto"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ResultStore persists a response; storage.JSONStore implements it.
type ResultStore interface {
	Save(v any, baseName string) (string, error)
}

// Document is one uploaded file.
type Document struct {
	Filename string
	MimeType string
	Data     []byte
}

// DocumentProcessor wires extraction, computation and persistence into the
// request-level operations used by the HTTP handlers and the CLI.
type DocumentProcessor struct {
	extractor   EntityExtractor
	validity    *ValidityService
	store       ResultStore
	concurrency int
	now         func() time.Time
}

// NewDocumentProcessor creates a DocumentProcessor. extractor and store may
// be nil when only entity computation is needed.
func NewDocumentProcessor(extractor EntityExtractor, validity *ValidityService, store ResultStore, concurrency int) *DocumentProcessor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &DocumentProcessor{
		extractor:   extractor,
		validity:    validity,
		store:       store,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Compute evaluates entities that were extracted elsewhere.
func (p *DocumentProcessor) Compute(req dto.ComputeRequest, schema dto.DocumentSchema, save bool) (*dto.ValidityResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	today := p.now()
	if req.Today != "" {
		t, err := time.Parse(dto.ISODateLayout, req.Today)
		if err != nil {
			return nil, fmt.Errorf("%w: today must be YYYY-MM-DD", dto.ErrInvalidDate)
		}
		today = t
	}

	resp := p.respond(schema, SourceEntities, req.Entities, today)
	if save {
		if err := p.save(resp, schema.Name); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Process extracts entities from one document and computes its validity.
func (p *DocumentProcessor) Process(ctx context.Context, doc Document, password string, schema dto.DocumentSchema, save bool) (*dto.ValidityResponse, error) {
	if p.extractor == nil {
		return nil, fmt.Errorf("document extraction is not configured")
	}
	ext, err := p.extractor.Extract(ctx, doc.Data, doc.MimeType, password, schema)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", doc.Filename, err)
	}

	resp := p.respond(schema, ext.Source, ext.Entities, p.now())
	if save {
		if err := p.save(resp, doc.Filename); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// ProcessBatch runs Process over docs with bounded concurrency. A failing
// document is reported in its item and does not stop the others; items keep
// the input order.
func (p *DocumentProcessor) ProcessBatch(ctx context.Context, docs []Document, schema dto.DocumentSchema, save bool) dto.BatchResponse {
	items := make([]dto.BatchItem, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			items[i].Filename = doc.Filename
			resp, err := p.Process(gctx, doc, "", schema, save)
			if err != nil {
				log.Warn().Err(err).Str("file", doc.Filename).Msg("batch item failed")
				items[i].Error = err.Error()
				return nil
			}
			items[i].Response = resp
			return nil
		})
	}
	_ = g.Wait()

	out := dto.BatchResponse{
		Items:       items,
		ProcessedAt: p.now().UTC().Format(time.RFC3339),
	}
	for _, item := range items {
		if item.Error != "" {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}
	log.Info().Int("succeeded", out.Succeeded).Int("failed", out.Failed).Msg("batch processed")
	return out
}

func (p *DocumentProcessor) respond(schema dto.DocumentSchema, source string, entities []dto.Entity, today time.Time) *dto.ValidityResponse {
	return &dto.ValidityResponse{
		RequestID:   uuid.NewString(),
		Schema:      schema.Name,
		Source:      source,
		Entities:    entities,
		Result:      p.validity.ComputeEntities(entities, schema, today),
		ProcessedAt: p.now().UTC().Format(time.RFC3339),
	}
}

func (p *DocumentProcessor) save(resp *dto.ValidityResponse, baseName string) error {
	if p.store == nil {
		return fmt.Errorf("result store is not configured")
	}
	path, err := p.store.Save(resp, baseName)
	if err != nil {
		return err
	}
	resp.SavedTo = path
	return nil
}
