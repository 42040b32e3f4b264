package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"supportdesk/internal/model"
)

type DocumentService struct {
	docs      DocumentStore
	files     FileStore
	extractor TextExtractor
}

type IngestInput struct {
	Filename string
	Data     []byte
}

func NewDocumentService(docs DocumentStore, files FileStore, extractor TextExtractor) *DocumentService {
	return &DocumentService{
		docs:      docs,
		files:     files,
		extractor: extractor,
	}
}

// Ingest stores the upload and records it as a document. Content that cannot be
// extracted leaves Text empty; it never fails the ingestion.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*model.Document, error) {
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		return nil, ErrInvalidInput
	}

	stored, err := s.files.Save(filename, input.Data)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		Filename:   filename,
		StoredName: stored.StoredName,
		URL:        stored.URL,
		Text:       s.extractText(input.Data, filename),
		UploadedAt: time.Now(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	log.Printf("[ingest] stored %q as %s (%d chars)", filename, stored.StoredName, len(doc.Text))
	return doc, nil
}

// IngestFile ingests a file from the local filesystem, as the inbox watcher does.
func (s *DocumentService) IngestFile(ctx context.Context, path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s failed: %w", path, err)
	}
	return s.Ingest(ctx, IngestInput{Filename: filepath.Base(path), Data: data})
}

func (s *DocumentService) ListDocuments(ctx context.Context, limit int) ([]model.Document, error) {
	return s.docs.ListRecent(ctx, limit)
}

// EnsureSeedDocument records the file at path as a document unless one with the
// same filename already exists. It references the file in place instead of copying it.
func (s *DocumentService) EnsureSeedDocument(ctx context.Context, path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, nil
	}
	filename := filepath.Base(path)

	existing, err := s.docs.GetByFilename(ctx, filename)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	var text string
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		text = s.extractText(data, filename)
	case errors.Is(err, os.ErrNotExist):
		log.Printf("[ingest] seed file %s not found, recording without text", path)
	default:
		return false, fmt.Errorf("read seed file failed: %w", err)
	}

	doc := &model.Document{
		Filename:   filename,
		StoredName: filename,
		URL:        path,
		Text:       text,
		UploadedAt: time.Now(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (s *DocumentService) extractText(data []byte, filename string) string {
	if s.extractor == nil {
		return ""
	}
	text, err := s.extractor.Extract(data, filename)
	if err != nil {
		log.Printf("[ingest] extract %q failed: %v", filename, err)
		return ""
	}
	return text
}
