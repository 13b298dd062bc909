package cacheupdate

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetCacheUpdates(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "http://example.com/posts/1/comments", nil)
	res := &http.Response{StatusCode: 200, Header: make(http.Header), Request: req}
	res.Header.Add("Cache-Update", "/posts/1")
	res.Header.Add("Cache-Update", "../; delay=5")
	res.Header.Add("Cache-Update", " ; delay=1")

	updates := GetCacheUpdates(req, res)
	require.Len(t, updates, 2)
	require.Equal(t, "http://example.com/posts/1", updates[0].URL.String())
	require.Equal(t, time.Duration(0), updates[0].Delay)
	require.Equal(t, "http://example.com/posts/", updates[1].URL.String())
	require.Equal(t, 5*time.Second, updates[1].Delay)
}

func TestSafeRequestHasNoUpdates(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	res := &http.Response{StatusCode: 200, Header: make(http.Header), Request: req}
	res.Header.Add("Cache-Update", "/other")
	require.Empty(t, GetCacheUpdates(req, res))
}

func TestGetDelay(t *testing.T) {
	require.Equal(t, 10*time.Second, getDelay("/a; DELAY=10"))
	require.Equal(t, time.Duration(0), getDelay("/a; nodelay=10"))
	require.Equal(t, time.Duration(0), getDelay("/a"))
}
