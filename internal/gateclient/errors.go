package gateclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrMissingProposalID = errors.New("missing proposal id")

// ConfigurationError means the client has no usable base URL. No request was
// attempted.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "gate api not configured: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// NetworkError covers DNS, refused connections and other transport failures.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: cannot reach gate api: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: request timed out after %s", e.Op, e.Timeout)
}

// HTTPError is any non-2xx response other than 409.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: api error: %d %s - %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// StageConflictError is the server's 409: the proposal is no longer at the
// stage the decision targeted. Refetch instead of retrying.
type StageConflictError struct {
	Op   string
	Body string
}

func (e *StageConflictError) Error() string {
	return fmt.Sprintf("%s: stage mismatch: %s", e.Op, e.Body)
}

// DecodeError is a 2xx response whose body is not JSON.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: invalid response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func IsStageConflict(err error) bool {
	var conflict *StageConflictError
	return errors.As(err, &conflict)
}

func IsNotConfigured(err error) bool {
	var cfg *ConfigurationError
	return errors.As(err, &cfg)
}

// IsRetryable reports whether repeating the same call may succeed.
func IsRetryable(err error) bool {
	var (
		network *NetworkError
		timeout *TimeoutError
		httpErr *HTTPError
	)
	return errors.As(err, &network) || errors.As(err, &timeout) || errors.As(err, &httpErr)
}

// StageConflict lets packages that do not import gateclient recognize a
// conflict through errors.As.
func (e *StageConflictError) StageConflict() bool { return true }
