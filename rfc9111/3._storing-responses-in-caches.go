package rfc9111

import "net/http"

// mustNotStore applies the storage rules for a private cache.
// Unlike a shared cache, "private" responses and responses to authenticated
// requests may be stored.
// Responses without explicit freshness are stored too: they are stale right away,
// but still usable for cache-only requests.
func mustNotStore(req *http.Request, res *http.Response) bool {
	resCacheControl := ParseCacheControl(res.Header.Values("Cache-Control"))
	if requestMethodIsUnderstood(req.Method) &&
		responseStatusCodeIsFinal(res.StatusCode) &&
		statusCodeUnderstoodIfNeeded(res, resCacheControl) &&
		!resCacheControl.HasDirective("no-store") {
		return false
	}
	return true
}

// statusCodeUnderstoodIfNeeded checks if the response status code needs to be understood and is.
// It returns true if understanding response status code is not needed.
func statusCodeUnderstoodIfNeeded(res *http.Response, resCacheControl CacheControl) bool {
	if (res.StatusCode == 206 || res.StatusCode == 304) || resCacheControl.HasDirective("must-understand") {
		return responseStatusCodeIsUnderstood(res.StatusCode)
	}
	return true
}

func requestMethodIsUnderstood(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead:
		return true
	}
	return false
}

func responseStatusCodeIsUnderstood(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300 && statusCode != 206
}

func responseStatusCodeIsFinal(statusCode int) bool {
	return statusCode >= 200 && statusCode <= 599
}
