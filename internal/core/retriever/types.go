package retriever

// Filters constrains a search.
type Filters struct {
	// MaxChunks caps the number of hits; <= 0 selects 5.
	MaxChunks int
	// Threshold is the minimum score of a hit.
	Threshold float64
	// IncludeLow keeps the best hit below Threshold when nothing else qualifies.
	IncludeLow bool
}

// Document is an indexed upload.
type Document struct {
	ID         string
	Filename   string
	StoredPath string
	Chunks     int
}

// Passage is one chunk handed to the index.
type Passage struct {
	Index   int
	Headers []string
	Content string
}

// Hit is a single search result with its metadata.
type Hit struct {
	ChunkID    string
	DocumentID string
	SourceFile string
	ChunkIndex int
	Headers    []string
	Content    string
	Score      float64
}
