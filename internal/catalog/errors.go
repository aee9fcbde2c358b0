package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the catalog or the proxy answers with a
// non-2xx status.
type StatusError struct {
	Source string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.Code, e.Body)
}

// StatusCode exposes the HTTP status for retry classification.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// IsNotFound reports whether err carries a 404 status.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
