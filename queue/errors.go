package queue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var ErrQueueClosed = errors.New("queue closed")

// Kind classifies request failures.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTimeout means the last attempt timed out.
	KindTimeout
	// KindNoConnection means the origin could not be reached.
	KindNoConnection
	// KindServer is a 5xx response.
	KindServer
	// KindClient is a 4xx response other than 401 and 403.
	KindClient
	// KindAuthFailure is a 401 or 403 response.
	KindAuthFailure
	// KindCacheMiss means a cache only request found nothing in the cache.
	KindCacheMiss
	// KindParse means a response could not be read.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNoConnection:
		return "no connection"
	case KindServer:
		return "server error"
	case KindClient:
		return "client error"
	case KindAuthFailure:
		return "auth failure"
	case KindCacheMiss:
		return "cache miss"
	case KindParse:
		return "parse error"
	}
	return "unknown error"
}

// Error is the error delivered for a failed request.
// For error responses, the status, headers and body of the response are included.
type Error struct {
	Kind       Kind
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (status %d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// statusError returns the error for a non-2xx response.
func statusError(statusCode int, header http.Header, body []byte) *Error {
	e := &Error{StatusCode: statusCode, Header: header, Body: body}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Kind = KindAuthFailure
	case statusCode >= 400 && statusCode < 500:
		e.Kind = KindClient
	case statusCode >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindUnknown
	}
	return e
}

// transportError classifies an error returned without a response.
func transportError(err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Err: err}
	case errors.As(err, &netErr) && netErr.Timeout():
		return &Error{Kind: KindTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindUnknown, Err: err}
	}
	return &Error{Kind: KindNoConnection, Err: err}
}
