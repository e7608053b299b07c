package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
)

type UploadResult struct {
	Name   string                  `json:"file_name"`
	APIs   []entity.APISummary     `json:"apis"`
	Report entity.ValidationReport `json:"validation"`
}

type GenerateRequest struct {
	Paths    []string `json:"selected_apis"`
	Count    int      `json:"count_per_api"`
	Priority string   `json:"priority"`
	Provider string   `json:"llm_provider"`
}

// APIDefinitionService manages uploaded API definition documents and runs
// batch generation over them.
type APIDefinitionService struct {
	docs      repository.DocumentRepository
	validator repository.DocumentValidator
	generator *BatchGenerator
	logger    *zap.Logger
}

func NewAPIDefinitionService(
	docs repository.DocumentRepository,
	validator repository.DocumentValidator,
	generator *BatchGenerator,
	logger *zap.Logger,
) *APIDefinitionService {
	return &APIDefinitionService{docs: docs, validator: validator, generator: generator, logger: logger}
}

// Upload validates a JSON document and stores it under a free name.
// A document that fails validation is not stored; the report says why.
func (s *APIDefinitionService) Upload(ctx context.Context, name string, data []byte) (*UploadResult, error) {
	name = filepath.Base(name)
	if !strings.EqualFold(filepath.Ext(name), ".json") {
		return nil, fmt.Errorf("%w: only .json documents are accepted", entity.ErrInvalidInput)
	}

	doc, report := s.validator.Validate(name, data)
	if doc == nil || !report.Passed {
		return &UploadResult{Name: name, Report: report}, fmt.Errorf("%w: %s failed validation", entity.ErrInvalidInput, name)
	}
	defs, err := doc.Definitions()
	if err != nil {
		return nil, err
	}

	stored, err := s.docs.Save(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	s.logger.Info("api document uploaded", zap.String("name", stored), zap.Int("apis", len(defs)))
	return &UploadResult{Name: stored, APIs: entity.Summarize(defs), Report: report}, nil
}

// Generate runs the coordinator over the named document and writes it back
// when the run succeeded.
func (s *APIDefinitionService) Generate(ctx context.Context, name string, req GenerateRequest) (entity.BatchResult, error) {
	return GenerateDocument(ctx, s.docs, s.generator, name, BatchRequest{
		Keys:           req.Paths,
		CountPerTarget: req.Count,
		Priority:       req.Priority,
		Provider:       req.Provider,
	})
}

func (s *APIDefinitionService) Download(ctx context.Context, name string) ([]byte, error) {
	return s.docs.Read(ctx, name)
}

func (s *APIDefinitionService) List(ctx context.Context) ([]string, error) {
	return s.docs.List(ctx)
}

// GenerateDocument reads name, generates cases for req.Keys and writes the
// updated document back. req.Targets is filled from the document. Runs on
// the same document are serialised from Read through Write.
func GenerateDocument(ctx context.Context, docs repository.DocumentRepository, g *BatchGenerator, name string, req BatchRequest) (entity.BatchResult, error) {
	unlock, err := documentLocks.Lock(ctx, name)
	if err != nil {
		return entity.BatchResult{}, fmt.Errorf("lock document %s: %w", name, err)
	}
	defer unlock()

	data, err := docs.Read(ctx, name)
	if err != nil {
		return entity.BatchResult{}, err
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return entity.BatchResult{}, err
	}
	defs, err := doc.Definitions()
	if err != nil {
		return entity.BatchResult{}, err
	}

	req.Targets = defs
	res := g.Generate(ctx, req)
	if !res.Success {
		return res, nil
	}

	out, err := EncodeDocument(doc)
	if err != nil {
		return res, fmt.Errorf("encode document: %w", err)
	}
	if err := docs.Write(ctx, name, out); err != nil {
		return res, fmt.Errorf("write document: %w", err)
	}
	return res, nil
}

func DecodeDocument(data []byte) (entity.APIDocument, error) {
	var doc entity.APIDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %v", entity.ErrInvalidInput, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document must be a JSON object", entity.ErrInvalidInput)
	}
	return doc, nil
}

// EncodeDocument writes doc as indented JSON without HTML escaping, so
// non-ASCII text and markup in descriptions stay readable.
func EncodeDocument(doc entity.APIDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
