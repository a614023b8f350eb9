package jobsapi

import (
	"fmt"
	"net/http"
)

// NetworkError means the request never produced a response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Network request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-2xx response. Its message is meant for users.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	switch {
	case e.Code == http.StatusNotFound:
		return "Jobs API endpoint not found (404)."
	case e.Code >= http.StatusInternalServerError:
		return fmt.Sprintf("Server error (%d). Please try again later.", e.Code)
	default:
		return fmt.Sprintf("HTTP error! status: %d", e.Code)
	}
}

// ParseError is a body that is not JSON or not shaped like a jobs page.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Unexpected response from jobs API: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
