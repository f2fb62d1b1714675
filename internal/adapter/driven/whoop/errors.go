package whoop

import "fmt"

// APIError represents a non-2xx response from the Whoop API. The message
// carries the vendor's error body.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whoop API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}
