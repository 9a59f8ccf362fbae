package homeserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind buckets transport failures. Callers branch on the bucket, never
// on platform error strings.
type ErrorKind string

const (
	// KindTimeout: the connect/read budget was exhausted.
	KindTimeout ErrorKind = "timeout"
	// KindDNS: the homeserver name did not resolve.
	KindDNS ErrorKind = "dns"
	// KindUnavailable: the homeserver refused the connection or answered 5xx.
	KindUnavailable ErrorKind = "unavailable"
	// KindNetwork: any other transport failure.
	KindNetwork ErrorKind = "network"
)

// NetworkError is a classified transport failure.
type NetworkError struct {
	Kind ErrorKind
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error (%s): %v", e.Kind, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a protocol-level error reported by the homeserver.
type APIError struct {
	Code       string `json:"errcode"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("homeserver error %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// IsForbidden reports whether the homeserver rejected the credentials.
func (e *APIError) IsForbidden() bool {
	return e.Code == "M_FORBIDDEN" || e.StatusCode == 403 || e.StatusCode == 401
}

// classifyErr folds a transport error into a NetworkError bucket. Context
// cancellation passes through untouched so callers can tell deliberate
// cancellation from a network fault.
func classifyErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &NetworkError{Kind: KindDNS, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &NetworkError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{Kind: KindTimeout, Err: err}
	}

	if strings.Contains(err.Error(), "connection refused") {
		return &NetworkError{Kind: KindUnavailable, Err: err}
	}

	return &NetworkError{Kind: KindNetwork, Err: err}
}
