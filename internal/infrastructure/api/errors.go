package api

import (
	"errors"
	"fmt"
	"strings"
)

// ResponseError is returned when the payment web application answers with a
// non-2xx status. Body is the raw response text.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, strings.TrimSpace(e.Body))
}

// DisplayText returns the text shown to a user for err: the raw response body
// for a ResponseError, the error message otherwise.
func DisplayText(err error) string {
	if err == nil {
		return ""
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.Body
	}
	return err.Error()
}

// StatusCode returns the HTTP status carried by err, or 0 when there is none
func StatusCode(err error) int {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}
