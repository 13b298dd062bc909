package rfc9111

import (
	"net/http"
	"net/url"
)

// UnsafeRequest returns whether the request method is unsafe,
// i.e. whether it may change state on the origin.
func UnsafeRequest(req *http.Request) bool {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}

// GetInvalidateURIs returns the absolute URIs whose stored responses are invalidated
// by the response to an unsafe request: the target URI, and the URIs in the
// Location and Content-Location header fields if they have the same origin.
// Only non-error responses invalidate.
func GetInvalidateURIs(req *http.Request, res *http.Response) []string {
	if !UnsafeRequest(req) || res.StatusCode < 200 || res.StatusCode >= 400 {
		return nil
	}
	uris := []string{req.URL.String()}
	for _, field := range []string{"Location", "Content-Location"} {
		value := res.Header.Get(field)
		if value == "" {
			continue
		}
		ref, err := url.Parse(value)
		if err != nil {
			continue
		}
		resolved := req.URL.ResolveReference(ref)
		if sameOrigin(req.URL, resolved) {
			uris = append(uris, resolved.String())
		}
	}
	return uris
}

func sameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme && a.Host == b.Host
}
