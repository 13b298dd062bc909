// Package rfc9111 implements the parts of HTTP Caching (RFC 9111) needed by a
// private, client-side cache: what may be stored, for how long it is fresh,
// and which stored responses an unsafe request invalidates.
package rfc9111

import (
	"fmt"
	"net/http"
)

// MustNotStore returns a boolean indicating if a particular origin response
// MUST NOT be stored in the cache.
//
// The response must have the following fields set:
//
// - StatusCode
// - Request with at least .Method set
//
// An error will be returned if any of these fields are not present.
func MustNotStore(originResponse *http.Response) (bool, error) {
	if originResponse.StatusCode == 0 {
		return true, fmt.Errorf("Response status code empty")
	}
	if originResponse.Request == nil {
		return true, fmt.Errorf("Response request object empty")
	}
	if originResponse.Request.Method == "" {
		return true, fmt.Errorf("Response request method empty")
	}
	return mustNotStore(originResponse.Request, originResponse), nil
}
