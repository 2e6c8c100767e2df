package upstream

import (
	"errors"
	"fmt"

	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

// Error codes attached to every failure surfaced by the request core.
const (
	CodeAuth        = "auth_error"
	CodeNetwork     = "network_error"
	CodeTimeout     = "timeout"
	CodeStatus      = "upstream_status"
	CodeParse       = "parse_error"
	CodeCircuitOpen = "circuit_open"
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether another attempt could plausibly succeed.
// Timeouts, transport failures, 5xx and 429 are retryable; everything else is deterministic.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.IsCode(err, CodeTimeout) || apperrors.IsCode(err, CodeNetwork) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == 429
	}
	return false
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if code := apperrors.CodeOf(err); code != "" {
		return code
	}
	return "error"
}
