package rfc9111

import (
	"net/http"
	"time"
)

// an invalid Expires value (e.g. "0") means already expired
func getExpires(res *http.Response) (time.Time, bool) {
	value := res.Header.Get("Expires")
	if value == "" {
		return time.Time{}, false
	}
	if exp, err := HttpDate(value); err == nil {
		return exp, true
	}
	return time.Unix(0, 0), true
}
