package census

import (
	"fmt"

	"github.com/rotisserie/eris"
)

var (
	// ErrRetrieval matches any failed attempt: a transport failure or a
	// non-200 status.
	ErrRetrieval = eris.New("census: retrieval failed")

	// ErrParse marks a 200 response whose body is not a JSON array of
	// equal-width string rows with a header.
	ErrParse = eris.New("census: malformed response")

	// ErrNoQuery is returned when a session is retried before any query
	// was built.
	ErrNoQuery = eris.New("census: no query has yet been made")

	// ErrDeclined is returned when the caller declines another attempt.
	ErrDeclined = eris.New("census: retry declined")

	// ErrInvalidRequest is returned when a Request is missing a field.
	ErrInvalidRequest = eris.New("census: invalid request")
)

// RetrievalError describes a failed attempt. StatusCode is 0 when the
// request never produced a response.
type RetrievalError struct {
	Topic      string
	StatusCode int
	Body       string
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("census: %s query failed: %v", e.Topic, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("census: %s query returned status %d: %s", e.Topic, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("census: %s query returned status %d", e.Topic, e.StatusCode)
}

// Unwrap returns the transport error, if any.
func (e *RetrievalError) Unwrap() error { return e.Err }

// Is reports whether target is ErrRetrieval.
func (e *RetrievalError) Is(target error) bool { return target == ErrRetrieval }
