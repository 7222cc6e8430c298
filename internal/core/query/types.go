package query

import "time"

// Config tunes retrieval and generation for one question.
type Config struct {
	MaxChunks            *int     `json:"max_chunks,omitempty" validate:"omitempty,min=1,max=20"`
	SimilarityThreshold  *float64 `json:"similarity_threshold,omitempty" validate:"omitempty,min=0,max=1"`
	MaxResponseTokens    *int     `json:"max_response_tokens,omitempty" validate:"omitempty,min=50,max=4000"`
	Temperature          *float64 `json:"temperature,omitempty" validate:"omitempty,min=0,max=1"`
	IncludeLowConfidence *bool    `json:"include_low_confidence,omitempty"`
}

type Request struct {
	Question string  `json:"question"`
	Config   *Config `json:"config,omitempty"`
}

type SourceReference struct {
	DocumentID     string   `json:"document_id"`
	ChunkID        string   `json:"chunk_id"`
	RelevanceScore float64  `json:"relevance_score"`
	Snippet        string   `json:"snippet"`
	SourceFile     string   `json:"source_file"`
	ChunkIndex     int      `json:"chunk_index"`
	Headers        []string `json:"headers"`
}

// Response is the backend's retrieval-augmented answer.
type Response struct {
	Answer         string            `json:"answer"`
	Sources        []SourceReference `json:"sources"`
	Confidence     float64           `json:"confidence"`
	Query          string            `json:"query"`
	ResponseTimeMs int64             `json:"response_time_ms"`
	Timestamp      time.Time         `json:"timestamp"`
}
