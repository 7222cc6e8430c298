package query

import (
	"encoding/json"
	"strings"
	"time"

	"docsearch/config"
	corequery "docsearch/internal/core/query"
	"docsearch/internal/core/retriever"
	"docsearch/internal/services/ingest"
	"docsearch/pkg/apperror"
	"docsearch/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
	"github.com/samber/lo"
)

const (
	snippetRunes     = 240
	defaultMaxChunks = 5
	defaultThreshold = 0.3
	charsPerToken    = 4
)

type Handler struct {
	index *retriever.Index
}

func NewHandler(index *retriever.Index) *Handler {
	return &Handler{index: index}
}

func (h *Handler) HandleQuery(c fiber.Ctx) error {
	start := time.Now()

	var req corequery.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.BadRequest(config.ModuleQuery, c, status.BadRequestInvalidBody, err.Error())
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return apperror.BadRequest(config.ModuleQuery, c, status.BadRequestMissingParams, "question is empty")
	}

	filters, maxTokens := filtersFor(req.Config)
	hits := h.index.Search(req.Question, filters)

	sources := lo.Map(hits, func(hit retriever.Hit, _ int) corequery.SourceReference {
		return corequery.SourceReference{
			DocumentID:     hit.DocumentID,
			ChunkID:        hit.ChunkID,
			RelevanceScore: hit.Score,
			Snippet:        ingest.Preview(hit.Content, snippetRunes),
			SourceFile:     hit.SourceFile,
			ChunkIndex:     hit.ChunkIndex,
			Headers:        lo.Ternary(hit.Headers == nil, []string{}, hit.Headers),
		}
	})

	resp := corequery.Response{
		Answer:     compose(hits, maxTokens),
		Sources:    sources,
		Confidence: lo.MeanBy(hits, func(hit retriever.Hit) float64 { return hit.Score }),
		Query:      req.Question,
		Timestamp:  time.Now().UTC(),
	}
	resp.ResponseTimeMs = time.Since(start).Milliseconds()
	return apperror.Success(config.ModuleQuery, c, resp)
}

func filtersFor(cfg *corequery.Config) (retriever.Filters, int) {
	f := retriever.Filters{MaxChunks: defaultMaxChunks, Threshold: defaultThreshold}
	maxTokens := 0
	if cfg == nil {
		return f, maxTokens
	}
	if cfg.MaxChunks != nil {
		f.MaxChunks = *cfg.MaxChunks
	}
	if cfg.SimilarityThreshold != nil {
		f.Threshold = *cfg.SimilarityThreshold
	}
	if cfg.IncludeLowConfidence != nil {
		f.IncludeLow = *cfg.IncludeLowConfidence
	}
	if cfg.MaxResponseTokens != nil {
		maxTokens = *cfg.MaxResponseTokens
	}
	return f, maxTokens
}

// compose stitches the best passages into an extractive answer.
func compose(hits []retriever.Hit, maxTokens int) string {
	if len(hits) == 0 {
		return "I could not find anything in the uploaded documents that answers this question."
	}
	var b strings.Builder
	for i, hit := range hits {
		if i == 3 {
			break
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.TrimSpace(hit.Content))
	}
	answer := b.String()
	if maxTokens > 0 {
		if r := []rune(answer); len(r) > maxTokens*charsPerToken {
			answer = strings.TrimSpace(string(r[:maxTokens*charsPerToken])) + "..."
		}
	}
	return answer
}
