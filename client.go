// Package easyrequest is an HTTP client with a response cache.
//
// Requests are built with a fluent RequestBuilder and executed on a queue
// of workers. Each request has a caching mode, deciding whether responses
// are read from the cache, written to it, or both.
package easyrequest

import (
	"net/http"
	"sync"
	"time"

	"github.com/always-cache/easyrequest/cache"
	responsetransformer "github.com/always-cache/easyrequest/pkg/response-transformer"
	"github.com/always-cache/easyrequest/policy"
	"github.com/always-cache/easyrequest/queue"
	"github.com/rs/zerolog"
)

type Config struct {
	// Storage for cache entries. An in-memory cache is used if nil.
	Cache cache.Store
	// Logger to use. A console logger is used if nil.
	Logger *zerolog.Logger
	// Number of requests executed concurrently.
	Workers int
	// Namespace for cache keys, for sharing a cache between clients.
	Namespace string
	// Defaults for the retry policy of requests.
	// Zero values mean the defaults of queue.DefaultRetryPolicy.
	Timeout           time.Duration
	MaxRetries        int
	BackoffMultiplier float64
	// Freshness lifetime of responses without one.
	DefaultTTL time.Duration
	// Rules applied to responses before they are stored.
	Rules responsetransformer.Rules
	// Interceptors run on every request, in order.
	Interceptors []Interceptor
	// Transport for network requests, a pooled transport if nil.
	Transport http.RoundTripper
}

// Response is a response delivered to a callback.
type Response = queue.Response

type Client struct {
	store     cache.Store
	queue     *queue.Queue
	policy    *policy.Policy[*queue.Request]
	log       zerolog.Logger
	namespace string
	retry     queue.RetryPolicy

	mutex        sync.RWMutex
	interceptors []Interceptor
}

// New creates a client and starts its workers.
// Close the client to stop them.
func New(config Config) *Client {
	// use console logger if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	} else {
		logger = *config.Logger
	}
	if config.Cache == nil {
		config.Cache = cache.NewMemCache()
	}

	retry := queue.DefaultRetryPolicy()
	if config.Timeout > 0 {
		retry.Timeout = config.Timeout
	}
	if config.MaxRetries > 0 {
		retry.MaxRetries = config.MaxRetries
	}
	if config.BackoffMultiplier > 0 {
		retry.BackoffMultiplier = config.BackoffMultiplier
	}

	q := queue.New(queue.Config{
		Store:      config.Cache,
		Logger:     &logger,
		Workers:    config.Workers,
		DefaultTTL: config.DefaultTTL,
		Rules:      config.Rules,
		Transport:  config.Transport,
	})

	return &Client{
		store:        config.Cache,
		queue:        q,
		policy:       policy.New[*queue.Request](config.Cache, q, &logger),
		log:          logger,
		namespace:    config.Namespace,
		retry:        retry,
		interceptors: append([]Interceptor(nil), config.Interceptors...),
	}
}

// AddInterceptor adds an interceptor that runs after the existing ones.
func (c *Client) AddInterceptor(interceptor Interceptor) {
	if interceptor == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.interceptors = append(c.interceptors, interceptor)
}

func (c *Client) getInterceptors() []Interceptor {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return append([]Interceptor(nil), c.interceptors...)
}

// Cache returns the store used by the client.
func (c *Client) Cache() cache.Store {
	return c.store
}

// Close waits for the queued requests to complete and stops the workers.
// The cache store is not closed.
func (c *Client) Close() error {
	return c.queue.Close()
}

func (c *Client) NewRequest(method, url string) *RequestBuilder {
	return &RequestBuilder{
		client:   c,
		method:   method,
		url:      url,
		headers:  make(http.Header),
		params:   make(map[string]string),
		query:    make(map[string][]string),
		mode:     policy.Default,
		retry:    c.retry,
		priority: queue.Normal,
	}
}

func (c *Client) Get(url string) *RequestBuilder {
	return c.NewRequest(http.MethodGet, url)
}

func (c *Client) Head(url string) *RequestBuilder {
	return c.NewRequest(http.MethodHead, url)
}

func (c *Client) Post(url string) *RequestBuilder {
	return c.NewRequest(http.MethodPost, url)
}

func (c *Client) Put(url string) *RequestBuilder {
	return c.NewRequest(http.MethodPut, url)
}

func (c *Client) Patch(url string) *RequestBuilder {
	return c.NewRequest(http.MethodPatch, url)
}

func (c *Client) Delete(url string) *RequestBuilder {
	return c.NewRequest(http.MethodDelete, url)
}
