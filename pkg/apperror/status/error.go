package status

import "fmt"

// ErrorCode is a numeric code to classify client errors in a stable way
type ErrorCode int

// Reserved ranges by domain:
//   1000-1999: Upload
//   2000-2999: Search
//   3000-3999: Transport (network, timeout, api)
//   4000-4999: Validation, auth, permission

// Upload error codes (1000-1999)
const (
	UploadFailed           ErrorCode = 1000 + iota // 1000
	UploadFileTooLarge                             // 1001
	UploadInvalidType                              // 1002
	UploadProcessingFailed                         // 1003
)

// Search error codes (2000-2999)
const (
	SearchServiceUnavailable ErrorCode = 2000 + iota // 2000
	SearchQueryTooShort                              // 2001
	SearchQueryTooLong                               // 2002
	SearchNoResults                                  // 2003
)

// Transport error codes (3000-3999)
const (
	TransportNetwork ErrorCode = 3000 + iota // 3000
	TransportTimeout                         // 3001
	TransportAPI                             // 3002
)

const (
	ValidationFailed ErrorCode = 4000 + iota // 4000
	AuthRequired                             // 4001
	PermissionDenied                         // 4002
)

// Backend (dev server) request errors
const (
	BadRequestMissingParams ErrorCode = 5000 + iota // 5000
	BadRequestInvalidBody                           // 5001
	BadRequestUnsupportedFile                       // 5002
)

const (
	ErrorCodeInternal ErrorCode = 9000
)

// Format renders a code the way it travels on the wire.
func Format(code ErrorCode) string {
	return fmt.Sprintf("AI-%d", code)
}

func (c ErrorCode) String() string { return Format(c) }
