package rfc9111

import (
	"net/http"
	"time"
)

// GetExpiration returns the time at which the response stops being fresh,
// given the time it was received.
// A zero time is returned if the response has no explicit freshness lifetime,
// or if it is already stale when received.
func GetExpiration(res *http.Response, responseTime time.Time) time.Time {
	lifetime, ok := FreshnessLifetime(res)
	if !ok {
		return time.Time{}
	}
	remaining := lifetime - initialAge(res, responseTime)
	if remaining <= 0 {
		return time.Time{}
	}
	return responseTime.Add(remaining)
}

// FreshnessLifetime returns the explicit freshness lifetime of the response,
// along with a boolean indicating whether one was present.
// Heuristic freshness is not used.
func FreshnessLifetime(res *http.Response) (time.Duration, bool) {
	resCacheControl := ParseCacheControl(res.Header.Values("Cache-Control"))
	// this is a private cache, s-maxage does not apply
	if val, ok := resCacheControl.MaxAge(); ok {
		return val, true
	}
	if expires, ok := getExpires(res); ok {
		date := dateValue(res)
		if date.IsZero() {
			return durationMax(0, time.Until(expires)), true
		}
		return durationMax(0, expires.Sub(date)), true
	}
	return 0, false
}

// initialAge is the corrected initial age, assuming no network latency.
func initialAge(res *http.Response, responseTime time.Time) time.Duration {
	apparentAge := time.Duration(0)
	if date := dateValue(res); !date.IsZero() {
		apparentAge = durationMax(0, responseTime.Sub(date))
	}
	age, _ := getAge(res)
	return durationMax(apparentAge, age)
}

func dateValue(res *http.Response) time.Time {
	if dateHeader := res.Header.Get("Date"); dateHeader != "" {
		if date, err := HttpDate(dateHeader); err == nil {
			return date
		}
	}
	return time.Time{}
}

func durationMax(d1, d2 time.Duration) time.Duration {
	if d1 > d2 {
		return d1
	}
	return d2
}
