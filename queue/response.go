package queue

import (
	"net/http"
	"time"

	"github.com/always-cache/easyrequest/rfc9211"
)

// Response is a fully read response, from the network or from the cache.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// CacheStatus reports how the cache handled the request.
	// The same value is set in the Cache-Status header.
	CacheStatus rfc9211.CacheStatus
	// RequestTime and ResponseTime are the times of the original network exchange.
	RequestTime  time.Time
	ResponseTime time.Time
	Request      *Request
}

// FromCache returns whether the response was served from the cache.
func (r *Response) FromCache() bool {
	return r.CacheStatus.IsHit()
}
