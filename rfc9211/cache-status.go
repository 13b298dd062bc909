// Package rfc9211 implements the Cache-Status response header field (RFC 9211),
// used to report how the cache handled a request.
package rfc9211

import (
	"fmt"
	"strings"
)

// CacheName is the cache identifier used in the header value.
const CacheName = "EasyRequest"

type Status string

const (
	StatusHit Status = "hit"
	StatusFwd Status = "fwd"
)

type FwdReason string

const (
	// The cache was configured to not handle this request.
	FwdReasonBypass FwdReason = "bypass"

	// The request method's semantics require the request to be
	// forwarded.
	FwdReasonMethod FwdReason = "method"

	// The cache did not contain any responses that matched the
	// request URI.
	FwdReasonUriMiss FwdReason = "uri-miss"

	// The cache did not contain any responses that could be used to
	// satisfy this request.
	FwdReasonMiss FwdReason = "miss"

	// The cache was able to select a fresh response for the
	// request, but the request's semantics did not allow its use.
	FwdReasonRequest FwdReason = "request"

	// The cache was able to select a response for the request, but
	// it was stale.
	FwdReasonStale FwdReason = "stale"
)

type CacheStatus struct {
	Status     Status
	FwdReason  FwdReason
	FwdStatus  int
	Stored     bool
	TimeToLive int
	Detail     string
}

func (cs *CacheStatus) Hit() {
	cs.Status = StatusHit
	cs.FwdReason = ""
}

func (cs *CacheStatus) Forward(reason FwdReason) {
	cs.Status = StatusFwd
	cs.FwdReason = reason
}

// IsHit returns whether the response was served from the cache.
func (cs CacheStatus) IsHit() bool {
	return cs.Status == StatusHit
}

// String returns the header field value.
func (cs CacheStatus) String() string {
	params := []string{CacheName}
	switch cs.Status {
	case StatusHit:
		params = append(params, "hit")
	case StatusFwd:
		params = append(params, "fwd="+string(cs.FwdReason))
		if cs.FwdStatus != 0 {
			params = append(params, fmt.Sprintf("fwd-status=%d", cs.FwdStatus))
		}
	}
	if cs.TimeToLive != 0 {
		params = append(params, fmt.Sprintf("ttl=%d", cs.TimeToLive))
	}
	if cs.Stored {
		params = append(params, "stored")
	}
	if cs.Detail != "" {
		params = append(params, "detail="+cs.Detail)
	}
	return strings.Join(params, "; ")
}
