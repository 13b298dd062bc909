package cacheupdate

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/always-cache/easyrequest/rfc9111"
)

var delayRegexp = regexp.MustCompile(`(?i)\bdelay=(\d+)`)

// CacheUpdate represents a single `Cache-Update` entry.
type CacheUpdate struct {
	// Fully resolved URL of the resource to invalidate.
	URL *url.URL
	// Update delay, i.e. delay update by this duration.
	Delay time.Duration
}

// GetCacheUpdates gets the updates specified by the response to an unsafe request.
// The request is used in order to resolve potentially relative update paths.
func GetCacheUpdates(req *http.Request, res *http.Response) []CacheUpdate {
	if !rfc9111.UnsafeRequest(req) {
		return nil
	}
	var updates []CacheUpdate
	for _, update := range res.Header.Values("Cache-Update") {
		u := getURL(req, update)
		if u == nil {
			continue
		}
		updates = append(updates, CacheUpdate{URL: u, Delay: getDelay(update)})
	}
	return updates
}

// getURL returns the URL to update the cache for from the `Cache-Update` header parameter.
// The URL is the first parameter in the header value (separated by a semicolon).
func getURL(r *http.Request, update string) *url.URL {
	possiblyRelativeURL := strings.TrimSpace(update)
	if i := strings.Index(possiblyRelativeURL, ";"); i != -1 {
		possiblyRelativeURL = strings.TrimSpace(possiblyRelativeURL[:i])
	}
	if possiblyRelativeURL == "" {
		return nil
	}
	ref, err := url.Parse(possiblyRelativeURL)
	if err != nil {
		return nil
	}
	return r.URL.ResolveReference(ref)
}

// getDelay returns the delay to wait before updating the cache for from the `Cache-Update` header parameter.
// The delay directive syntax is `delay=N`, where N is the number of seconds to wait.
// If no delay directive is found, it returns 0.
func getDelay(update string) time.Duration {
	if matches := delayRegexp.FindStringSubmatch(update); matches != nil {
		if delay, err := strconv.Atoi(matches[1]); err == nil {
			return time.Duration(delay) * time.Second
		}
	}
	return 0
}
