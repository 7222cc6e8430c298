package upload

import "time"

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Response reports how the backend processed an uploaded document.
type Response struct {
	DocumentID       string    `json:"document_id"`
	Filename         string    `json:"filename"`
	ChunksCreated    int       `json:"chunks_created"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Status           string    `json:"status"`
	Message          string    `json:"message"`
	Timestamp        time.Time `json:"timestamp"`
}
