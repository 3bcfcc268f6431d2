package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aashish23092/ocr-document-validity/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	byName   map[string][]dto.Entity
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *stubExtractor) Extract(_ context.Context, data []byte, _, _ string, _ dto.DocumentSchema) (*Extraction, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	entities, ok := s.byName[string(data)]
	if !ok {
		return nil, dto.ErrNoText
	}
	return &Extraction{Entities: entities, Source: SourceOCR}, nil
}

type memStore struct {
	mu    sync.Mutex
	saved map[string]any
	err   error
}

func (m *memStore) Save(v any, baseName string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = map[string]any{}
	}
	path := "/out/" + baseName + ".json"
	m.saved[path] = v
	return path, nil
}

func fixedProcessor(ex EntityExtractor, store ResultStore, concurrency int) *DocumentProcessor {
	p := NewDocumentProcessor(ex, NewValidityService(nil, nil), store, concurrency)
	p.now = func() time.Time { return day(2026, time.January, 1) }
	return p
}

func TestProcessorCompute(t *testing.T) {
	store := &memStore{}
	p := fixedProcessor(nil, store, 1)

	resp, err := p.Compute(dto.ComputeRequest{
		Today: "2025-01-01",
		Entities: []dto.Entity{
			{Type: "issuance_date", MentionText: "01-01-2020"},
			{Type: "validity_period", MentionText: "(2) AÑOS"},
		},
	}, dto.SchemaRACDA, true)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, "racda", resp.Schema)
	assert.Equal(t, SourceEntities, resp.Source)
	assert.Equal(t, "2022-01-01", resp.Result.ExpirationDate.String())
	assert.False(t, resp.Result.IsValid)
	assert.Equal(t, "/out/racda.json", resp.SavedTo)
	assert.Contains(t, store.saved, "/out/racda.json")
}

func TestProcessorComputeDefaultsTodayToClock(t *testing.T) {
	p := fixedProcessor(nil, nil, 1)

	resp, err := p.Compute(dto.ComputeRequest{
		Entities: []dto.Entity{{Type: "issuance_date", MentionText: "01/06/2024"}},
	}, dto.SchemaRACDA, false)
	require.NoError(t, err)
	assert.True(t, resp.Result.IsValid)
	assert.Empty(t, resp.SavedTo)
}

func TestProcessorComputeRejectsBadRequests(t *testing.T) {
	p := fixedProcessor(nil, nil, 1)

	_, err := p.Compute(dto.ComputeRequest{}, dto.SchemaRACDA, false)
	assert.ErrorIs(t, err, dto.ErrNoEntities)

	_, err = p.Compute(dto.ComputeRequest{
		Today:    "01/01/2025",
		Entities: []dto.Entity{{Type: "issuance_date", MentionText: "x"}},
	}, dto.SchemaRACDA, false)
	assert.ErrorIs(t, err, dto.ErrInvalidDate)

	_, err = p.Compute(dto.ComputeRequest{
		Entities: []dto.Entity{{Type: "issuance_date", MentionText: "x"}},
	}, dto.SchemaRACDA, true)
	assert.Error(t, err, "saving without a store")
}

func TestProcessorProcessPropagatesStoreError(t *testing.T) {
	ex := &stubExtractor{byName: map[string][]dto.Entity{"a": {{Type: "issuance_date", MentionText: "01/01/2025"}}}}
	p := fixedProcessor(ex, &memStore{err: errors.New("disk full")}, 1)

	_, err := p.Process(context.Background(), Document{Filename: "a.png", Data: []byte("a")}, "", dto.SchemaRACDA, true)
	assert.EqualError(t, err, "disk full")
}

func TestProcessBatchKeepsOrderAndIsolatesFailures(t *testing.T) {
	ex := &stubExtractor{byName: map[string][]dto.Entity{
		"a": {{Type: "issuance_date", MentionText: "01/01/2025"}},
		"c": {{Type: "issuance_date", MentionText: "01/01/2010"}, {Type: "validity_period", MentionText: "(3) AÑOS"}},
		"d": {{Type: "validity_period", MentionText: "5 AÑOS"}},
	}}
	p := fixedProcessor(ex, nil, 2)

	docs := []Document{
		{Filename: "a.png", Data: []byte("a")},
		{Filename: "b.png", Data: []byte("b")},
		{Filename: "c.png", Data: []byte("c")},
		{Filename: "d.png", Data: []byte("d")},
	}
	out := p.ProcessBatch(context.Background(), docs, dto.SchemaRACDA, false)

	require.Len(t, out.Items, 4)
	assert.Equal(t, 3, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	for i, doc := range docs {
		assert.Equal(t, doc.Filename, out.Items[i].Filename)
	}

	assert.True(t, out.Items[0].Response.Result.IsValid)
	assert.Nil(t, out.Items[1].Response)
	assert.Contains(t, out.Items[1].Error, dto.ErrNoText.Error())
	assert.False(t, out.Items[2].Response.Result.IsValid)
	assert.Equal(t, "2013-01-01", out.Items[2].Response.Result.ExpirationDate.String())
	assert.Equal(t, dto.ExpirationUnknown, out.Items[3].Response.Result.ExpirationDate.String())

	assert.LessOrEqual(t, ex.peak.Load(), int32(2))
}

func TestProcessWithoutExtractor(t *testing.T) {
	p := fixedProcessor(nil, nil, 1)
	_, err := p.Process(context.Background(), Document{Filename: "x.pdf"}, "", dto.SchemaRACDA, false)
	assert.Error(t, err)
}
