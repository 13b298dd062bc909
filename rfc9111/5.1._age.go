package rfc9111

import (
	"net/http"
	"time"
)

func getAge(res *http.Response) (time.Duration, bool) {
	if secondsStr := res.Header.Get("Age"); secondsStr != "" {
		return deltaSeconds(secondsStr), true
	}
	return 0, false
}

// AddAgeHeader sets the Age header of a stored response that is about to be reused.
// It directly mutates the response headers.
func AddAgeHeader(header http.Header, responseTime, now time.Time) {
	age := durationMax(0, now.Sub(responseTime))
	if stored, ok := getAge(&http.Response{Header: header}); ok {
		age += stored
	}
	header.Set("Age", toDeltaSeconds(age.Truncate(time.Second)))
}
