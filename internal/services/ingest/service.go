package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docsearch/config"
	"docsearch/internal/core/retriever"
	"docsearch/internal/core/upload"
	"docsearch/pkg/logger"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Service runs the ingestion pipeline: store, extract, chunk, index.
type Service struct {
	index *retriever.Index
	store Store
	cfg   config.IngestConfig
}

func NewService(index *retriever.Index, store Store, cfg config.IngestConfig) *Service {
	return &Service{index: index, store: store, cfg: cfg}
}

func (s *Service) Store() Store { return s.store }

func (s *Service) Index() *retriever.Index { return s.index }

// Ingest processes one uploaded file. Documents without extractable text are
// reported with status "failure" rather than an error; err is reserved for
// storage problems and unsupported input.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte) (upload.Response, error) {
	start := time.Now()
	docID := uuid.NewString()
	log := logger.WithFields(map[string]interface{}{
		"module":   config.ModuleIngest,
		"doc_id":   docID,
		"filename": filename,
	})
	log.Info("ingest: start")

	resp := upload.Response{
		DocumentID: docID,
		Filename:   filename,
		Timestamp:  start.UTC(),
	}

	// Extract text sections
	sections, err := Extract(filename, data)
	if errors.Is(err, ErrUnsupported) {
		return resp, err
	}
	if err != nil {
		log.WithField("error", err).Warn("ingest: extract text failed")
		resp.Status = upload.StatusFailure
		resp.Message = fmt.Sprintf("Failed to process document: %v", err)
		resp.ProcessingTimeMs = time.Since(start).Milliseconds()
		return resp, nil
	}

	stored, err := s.store.Save(ctx, filename, data)
	if err != nil {
		return resp, fmt.Errorf("store %s: %w", filename, err)
	}

	// Chunking
	targetTokens := s.cfg.ChunkTokens
	if targetTokens <= 0 {
		targetTokens = 600
	}
	overlap := s.cfg.ChunkOverlap
	if overlap < 0 {
		overlap = 80
	}
	chunks := BuildChunks(sections, targetTokens, overlap)
	log.WithField("chunks", len(chunks)).Info("ingest: chunks built")

	s.index.Add(retriever.Document{ID: docID, Filename: filename, StoredPath: stored},
		lo.Map(chunks, func(c Chunk, _ int) retriever.Passage {
			return retriever.Passage{Index: c.ChunkIndex, Headers: c.Headers, Content: c.Content}
		}))

	resp.ChunksCreated = len(chunks)
	resp.Status = upload.StatusSuccess
	resp.Message = fmt.Sprintf("Document processed into %d chunks", len(chunks))
	resp.ProcessingTimeMs = time.Since(start).Milliseconds()
	log.Info("ingest: done")
	return resp, nil
}
