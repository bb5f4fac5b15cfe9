package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError marks an error as safe to retry, optionally carrying the
// HTTP status that produced it.
type TransientError struct {
	Err    error
	Status int
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// MarkTransient wraps err as retryable.
func MarkTransient(err error, status int) *TransientError {
	return &TransientError{Err: err, Status: status}
}

// transientFragments are substrings of wrapped client errors that indicate a
// retryable network condition.
var transientFragments = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"no such host",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
}

// Transient reports whether err is worth retrying: an explicit
// TransientError, a network timeout, a connection-level failure, or a
// message matching a known transient pattern.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, frag := range transientFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// RetryableStatus reports whether an HTTP status indicates a transient
// server-side condition.
func RetryableStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}
