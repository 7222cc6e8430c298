package httpclient

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

// FormData is a multipart body. Files are held in memory so every retry
// attempt can resend the same bytes.
type FormData struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name, value string
}

type formFile struct {
	field, filename string
	content         []byte
}

func NewFormData() *FormData {
	return &FormData{}
}

// Set appends a plain form field.
func (f *FormData) Set(name, value string) *FormData {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AddFile appends a file part.
func (f *FormData) AddFile(field, filename string, content []byte) *FormData {
	f.files = append(f.files, formFile{field: field, filename: filename, content: content})
	return f
}

// encode renders the multipart body and its boundary-carrying content type.
func (f *FormData) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.name, err)
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", file.filename, err)
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", file.filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Request is one logical call; it may be attempted several times.
type Request struct {
	Method  string
	Path    string
	Body    any
	Header  http.Header
	Timeout time.Duration
	NoRetry bool
}

// CallOption adjusts a single call.
type CallOption func(*Request)

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(r *Request) { r.Timeout = d }
}

// WithoutRetry limits the call to a single attempt. It does not change how the
// resulting error is classified.
func WithoutRetry() CallOption {
	return func(r *Request) { r.NoRetry = true }
}

// WithHeader sets a request header for this call.
func WithHeader(key, value string) CallOption {
	return func(r *Request) {
		if r.Header == nil {
			r.Header = http.Header{}
		}
		r.Header.Set(key, value)
	}
}

// Response is a decoded 2xx response.
type Response[T any] struct {
	Data       T
	Status     int
	StatusText string
	Header     http.Header
	// Retries is the number of attempts made before the successful one.
	Retries int
}
