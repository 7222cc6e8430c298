package errhandler

import (
	"strings"

	"docsearch/pkg/apperror"
)

const genericMessage = "An unexpected error occurred. Please try again."

// userFriendlyMessages is matched exactly first, then by substring in this order.
var userFriendlyMessages = []struct {
	key     string
	message string
}{
	// Network errors
	{"Failed to fetch", "Unable to connect to the server. Please check your internet connection."},
	{"NetworkError", "Network connection failed. Please try again."},
	{"connection refused", "Unable to connect to the server. Please check your internet connection."},
	{"no such host", "Unable to reach the server address. Please check the configured URL."},

	// Timeout errors
	{"Request timed out", "The request took too long to complete. Please try again."},
	{"context deadline exceeded", "The request was cancelled due to timeout. Please try again."},

	// API errors
	{"Internal Server Error", "The server encountered an error. Please try again later."},
	{"Service Unavailable", "The service is temporarily unavailable. Please try again later."},
	{"Bad Gateway", "Server communication error. Please try again."},
	{"Gateway Timeout", "The server took too long to respond. Please try again."},

	// File upload errors
	{"File too large", "The selected file is too large. Please choose a smaller file."},
	{"Invalid file type", "Please select a supported document (PDF or Markdown)."},
	{"Upload failed", "File upload failed. Please try again."},

	// Search errors
	{"No results found", "No relevant information found for your query. Try rephrasing your question."},
	{"Query too short", "Please enter a longer search query."},
	{"Query too long", "Your search query is too long. Please shorten it."},

	// Authentication errors
	{"Unauthorized", "You are not authorized to perform this action."},
	{"Forbidden", "Access denied. You do not have permission to access this resource."},

	{"Unknown error", genericMessage},
}

// UserMessage resolves the human-readable message for err.
func UserMessage(err *apperror.AppError) string {
	if err == nil {
		return genericMessage
	}
	msg := err.Message()

	for _, m := range userFriendlyMessages {
		if m.key == msg {
			return m.message
		}
	}

	lower := strings.ToLower(msg)
	for _, m := range userFriendlyMessages {
		if strings.Contains(lower, strings.ToLower(m.key)) {
			return m.message
		}
	}

	if typed := typeMessage(err); typed != "" {
		return typed
	}

	if msg != "" {
		return msg
	}
	return genericMessage
}

func typeMessage(err *apperror.AppError) string {
	switch err.Type() {
	case apperror.TypeNetwork:
		return "Network connection failed. Please check your internet connection and try again."
	case apperror.TypeTimeout:
		return "The request timed out. Please try again."
	case apperror.TypeAPI:
		switch {
		case err.StatusCode() >= 500:
			return "Server error occurred. Please try again later."
		case err.StatusCode() >= 400:
			return "Request failed. Please check your input and try again."
		}
	case apperror.TypeUpload:
		switch err.Reason() {
		case apperror.ReasonFileTooLarge:
			return "The selected file is too large. Please choose a smaller file."
		case apperror.ReasonInvalidType:
			return "Please select a supported document (PDF or Markdown)."
		case apperror.ReasonUploadFailed:
			return "File upload failed. Please try again."
		case apperror.ReasonProcessingFailed:
			return "File processing failed. Please try uploading again."
		}
	case apperror.TypeSearch:
		switch err.Reason() {
		case apperror.ReasonNoResults:
			return "No relevant information found. Try rephrasing your question."
		case apperror.ReasonQueryTooShort:
			return "Please enter a longer search query."
		case apperror.ReasonQueryTooLong:
			return "Your search query is too long. Please shorten it."
		case apperror.ReasonServiceUnavailable:
			return "Search service is temporarily unavailable. Please try again later."
		}
	case apperror.TypeAuth:
		return "Your session is not authorized. Please sign in again or contact support."
	case apperror.TypePermission:
		return "Access denied. You do not have permission to access this resource."
	}
	return ""
}
