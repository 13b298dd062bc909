package queue

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	cachekey "github.com/always-cache/easyrequest/pkg/cache-key"
	"github.com/google/uuid"
)

// Priority decides the order in which queued requests are executed.
// Requests with equal priority run in the order they were enqueued.
type Priority int

const (
	Low Priority = iota
	Normal
	High
	Immediate
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Normal:
		return "normal"
	case High:
		return "high"
	case Immediate:
		return "immediate"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// RetryPolicy configures how a request is retried by the transport.
type RetryPolicy struct {
	// Timeout of a single attempt.
	Timeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BackoffMultiplier grows the wait before each retry, starting from Timeout.
	BackoffMultiplier float64
}

// DefaultRetryPolicy returns the policy used for requests that don't set their own.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:           2500 * time.Millisecond,
		MaxRetries:        1,
		BackoffMultiplier: 1,
	}
}

// Request is a request to be executed by the queue.
// It must not be modified after it has been enqueued.
type Request struct {
	ID       uuid.UUID
	Method   string
	URL      *url.URL
	Header   http.Header
	Body     []byte
	Priority Priority
	Retry    RetryPolicy
	// Namespace of the cache key, see cachekey.CacheKeyer.
	Namespace string

	shouldCache bool
	deliver     func(*Response, error)
	once        *sync.Once
}

// NewRequest creates a cacheable request with normal priority and the default retry policy.
func NewRequest(method, rawURL string, body []byte) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("url %q is not absolute", rawURL)
	}
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		ID:          uuid.New(),
		Method:      method,
		URL:         u,
		Header:      make(http.Header),
		Body:        body,
		Priority:    Normal,
		Retry:       DefaultRetryPolicy(),
		shouldCache: true,
		once:        &sync.Once{},
	}, nil
}

// CacheKey returns the key of the request in the cache store,
// or an empty string if the request has no valid target.
func (r *Request) CacheKey() string {
	if r.URL == nil || r.URL.Host == "" {
		return ""
	}
	httpReq, err := r.httpRequest(context.Background())
	if err != nil {
		return ""
	}
	key, err := cachekey.NewCacheKeyer(r.Namespace).GetKey(httpReq)
	if err != nil {
		return ""
	}
	return key
}

func (r *Request) SetShouldCache(shouldCache bool) {
	r.shouldCache = shouldCache
}

// ShouldCache returns whether the response may be read from and written to the cache.
func (r *Request) ShouldCache() bool {
	return r.shouldCache
}

// OnDelivery sets the function called with the result of the request.
// It is called exactly once, from a queue worker.
func (r *Request) OnDelivery(deliver func(*Response, error)) {
	r.deliver = deliver
}

// Clone returns a deep copy of the request with a new ID and no delivery function.
func (r *Request) Clone() *Request {
	u := *r.URL
	return &Request{
		ID:          uuid.New(),
		Method:      r.Method,
		URL:         &u,
		Header:      r.Header.Clone(),
		Body:        bytes.Clone(r.Body),
		Priority:    r.Priority,
		Retry:       r.Retry,
		Namespace:   r.Namespace,
		shouldCache: r.shouldCache,
		once:        &sync.Once{},
	}
}

func (r *Request) String() string {
	return r.Method + " " + r.URL.String()
}

func (r *Request) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.Method, r.URL.String(), body)
	if err != nil {
		return nil, err
	}
	if r.Header != nil {
		httpReq.Header = r.Header.Clone()
	}
	return httpReq, nil
}

// complete delivers the result, unless it has been delivered already.
func (r *Request) complete(res *Response, err error) bool {
	if r.once == nil {
		r.once = &sync.Once{}
	}
	delivered := false
	r.once.Do(func() {
		delivered = true
		if r.deliver != nil {
			r.deliver(res, err)
		}
	})
	return delivered
}
