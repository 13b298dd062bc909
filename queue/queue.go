// Package queue executes requests on a pool of workers, reading responses
// from and writing them to a cache store.
package queue

import (
	"container/heap"
	"net/http"
	"sync"
	"time"

	"github.com/always-cache/easyrequest/cache"
	responsetransformer "github.com/always-cache/easyrequest/pkg/response-transformer"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

const defaultWorkers = 4

type Config struct {
	// Store for responses. Required.
	Store cache.Store
	// Logger to use, defaults to a console logger.
	Logger *zerolog.Logger
	// Workers is the number of requests executed concurrently.
	Workers int
	// DefaultTTL is the freshness lifetime of responses that don't specify one.
	// Zero stores such responses as stale.
	DefaultTTL time.Duration
	// Rules applied to responses before they are stored.
	Rules responsetransformer.Rules
	// Transport for network requests, defaults to a pooled transport.
	Transport http.RoundTripper
}

// Queue is the network queue.
// Results are delivered to the function set with Request.OnDelivery.
type Queue struct {
	store      cache.Store
	logger     zerolog.Logger
	defaultTTL time.Duration
	rules      responsetransformer.Rules
	transport  http.RoundTripper

	mutex   sync.Mutex
	cond    *sync.Cond
	pending requestHeap
	seq     uint64
	closed  bool
	timers  map[*time.Timer]struct{}
	workers sync.WaitGroup
}

// New creates a queue and starts its workers.
func New(config Config) *Queue {
	if config.Logger == nil {
		logger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
		config.Logger = &logger
	}
	if config.Store == nil {
		config.Store = cache.NewMemCache()
	}
	if config.Workers <= 0 {
		config.Workers = defaultWorkers
	}
	if config.Transport == nil {
		config.Transport = cleanhttp.DefaultPooledTransport()
	}
	q := &Queue{
		store:      config.Store,
		logger:     config.Logger.With().Str("component", "queue").Logger(),
		defaultTTL: config.DefaultTTL,
		rules:      config.Rules,
		transport:  config.Transport,
		timers:     make(map[*time.Timer]struct{}),
	}
	q.cond = sync.NewCond(&q.mutex)
	q.workers.Add(config.Workers)
	for i := 0; i < config.Workers; i++ {
		go q.work()
	}
	return q
}

// Enqueue schedules the request for execution.
// Fresh cached responses are used if the request should be cached.
func (q *Queue) Enqueue(req *Request) error {
	return q.push(req, false)
}

// EnqueueCacheOnly schedules the request to be resolved from the cache only.
// Stale responses are used too. If nothing is cached, a KindCacheMiss error is delivered.
func (q *Queue) EnqueueCacheOnly(req *Request) error {
	return q.push(req, true)
}

// Close stops accepting requests, waits for the queued ones to complete and stops the workers.
// Delayed invalidations that have not run yet are dropped.
func (q *Queue) Close() error {
	q.mutex.Lock()
	q.closed = true
	for timer := range q.timers {
		timer.Stop()
	}
	q.timers = make(map[*time.Timer]struct{})
	q.cond.Broadcast()
	q.mutex.Unlock()

	q.workers.Wait()
	return nil
}

func (q *Queue) push(req *Request, cacheOnly bool) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.seq++
	heap.Push(&q.pending, &queued{req: req, cacheOnly: cacheOnly, seq: q.seq})
	q.cond.Signal()
	return nil
}

// next blocks until there is a request to execute.
// It returns false once the queue is closed and drained.
func (q *Queue) next() (*queued, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	for len(q.pending) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.pending) == 0 {
		return nil, false
	}
	return heap.Pop(&q.pending).(*queued), true
}

func (q *Queue) work() {
	defer q.workers.Done()
	for {
		item, ok := q.next()
		if !ok {
			return
		}
		q.process(item)
	}
}

// after runs fn after the delay, unless the queue is closed first.
func (q *Queue) after(delay time.Duration, fn func()) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.closed {
		return
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		q.mutex.Lock()
		_, scheduled := q.timers[timer]
		delete(q.timers, timer)
		q.mutex.Unlock()
		if scheduled {
			fn()
		}
	})
	q.timers[timer] = struct{}{}
}

type queued struct {
	req       *Request
	cacheOnly bool
	seq       uint64
}

// requestHeap orders by priority, then by enqueue order.
type requestHeap []*queued

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].req.Priority != h[j].req.Priority {
		return h[i].req.Priority > h[j].req.Priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) {
	*h = append(*h, x.(*queued))
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
