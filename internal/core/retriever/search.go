package retriever

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"docsearch/config"
	"docsearch/pkg/logger"

	"github.com/samber/lo"
)

const defaultMaxChunks = 5

type entry struct {
	hit   Hit
	terms map[string]struct{}
}

// Index is an in-memory lexical index over uploaded chunks. It is safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	docs    map[string]Document
	entries []entry
}

func NewIndex() *Index {
	return &Index{docs: make(map[string]Document)}
}

// Add indexes the passages of doc, replacing any previous version of it.
func (ix *Index) Add(doc Document, passages []Passage) {
	entries := make([]entry, 0, len(passages))
	for _, p := range passages {
		entries = append(entries, entry{
			hit: Hit{
				ChunkID:    fmt.Sprintf("%s:%d", doc.ID, p.Index),
				DocumentID: doc.ID,
				SourceFile: doc.Filename,
				ChunkIndex: p.Index,
				Headers:    p.Headers,
				Content:    p.Content,
			},
			terms: lo.SliceToMap(Terms(p.Content), func(t string) (string, struct{}) {
				return t, struct{}{}
			}),
		})
	}
	doc.Chunks = len(passages)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.docs[doc.ID]; ok {
		ix.entries = lo.Reject(ix.entries, func(e entry, _ int) bool { return e.hit.DocumentID == doc.ID })
	}
	ix.docs[doc.ID] = doc
	ix.entries = append(ix.entries, entries...)
}

// Search scores every chunk by the share of question terms it contains and
// returns the best hits at or above the threshold, highest score first.
func (ix *Index) Search(question string, f Filters) []Hit {
	if f.MaxChunks <= 0 {
		f.MaxChunks = defaultMaxChunks
	}
	qterms := Terms(question)
	if len(qterms) == 0 {
		return []Hit{}
	}

	start := time.Now()
	ix.mu.RLock()
	scored := make([]Hit, 0, len(ix.entries))
	for _, e := range ix.entries {
		matched := lo.CountBy(qterms, func(t string) bool {
			_, ok := e.terms[t]
			return ok
		})
		if matched == 0 {
			continue
		}
		h := e.hit
		h.Score = float64(matched) / float64(len(qterms))
		scored = append(scored, h)
	}
	ix.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	hits := lo.Filter(scored, func(h Hit, _ int) bool { return h.Score >= f.Threshold })
	if len(hits) == 0 && f.IncludeLow && len(scored) > 0 {
		hits = scored[:1]
	}
	if len(hits) > f.MaxChunks {
		hits = hits[:f.MaxChunks]
	}
	logger.Debug("%v: search done: %d hits in %s", config.ModuleIngest, len(hits), time.Since(start))
	return hits
}

// Documents lists the indexed documents.
func (ix *Index) Documents() []Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return lo.Values(ix.docs)
}

// Len is the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}
