// Package policy decides how a request interacts with the response cache
// and the network queue, depending on its caching mode.
//
// The only state kept between submission and delivery is the entry evicted
// by a bypassing request, which is put back if the request fails.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/always-cache/easyrequest/cache"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidTarget is returned for requests without a resolvable target.
// Nothing is submitted for such requests.
var ErrInvalidTarget = errors.New("invalid request target")

// CachingMode selects how a request uses the cache.
type CachingMode int

const (
	// Default reads fresh responses from the cache and stores new ones.
	Default CachingMode = iota
	// NoCache never reads from or writes to the cache.
	NoCache
	// OfflineOnly is served from the cache only, the network is never used.
	OfflineOnly
	// BypassReadButWrite always goes to the network, but stores the response.
	// The previous entry is restored if the request fails.
	BypassReadButWrite
)

var modeNames = map[CachingMode]string{
	Default:            "default",
	NoCache:            "no-cache",
	OfflineOnly:        "offline-only",
	BypassReadButWrite: "bypass-read-but-write",
}

func (m CachingMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("CachingMode(%d)", int(m))
}

// ParseCachingMode parses the names returned by CachingMode.String, case insensitively.
func ParseCachingMode(s string) (CachingMode, error) {
	for mode, name := range modeNames {
		if strings.EqualFold(s, name) {
			return mode, nil
		}
	}
	return Default, fmt.Errorf("unknown caching mode %q", s)
}

// Request is what the policy needs to know about a request.
type Request interface {
	// CacheKey returns the key of the request in the cache store.
	// An empty key means the request has no valid target.
	CacheKey() string
	// SetShouldCache marks whether the response may be read from and written to the cache.
	SetShouldCache(bool)
}

// NetworkQueue executes requests and delivers their results asynchronously.
type NetworkQueue[R Request] interface {
	Enqueue(req R) error
	EnqueueCacheOnly(req R) error
}

// Policy dispatches requests to a network queue, manipulating the cache store as the mode requires.
// It is safe for concurrent use as long as the store and queue are.
type Policy[R Request] struct {
	store  cache.Store
	queue  NetworkQueue[R]
	logger zerolog.Logger
}

// New creates a policy. A nil logger logs to the console.
func New[R Request](store cache.Store, queue NetworkQueue[R], logger *zerolog.Logger) *Policy[R] {
	if logger == nil {
		l := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
		logger = &l
	}
	return &Policy[R]{
		store:  store,
		queue:  queue,
		logger: logger.With().Str("component", "policy").Logger(),
	}
}

// Submit hands the request to the queue according to the caching mode.
// The returned Pending must be resolved with OnSuccess or OnFailure once the result is delivered.
//
// If the queue refuses the request, any evicted entry is restored and the error is returned.
func (p *Policy[R]) Submit(req R, mode CachingMode) (*Pending, error) {
	key := req.CacheKey()
	if key == "" {
		return nil, ErrInvalidTarget
	}
	pending := &Pending{
		ID:    uuid.New(),
		Key:   key,
		Mode:  mode,
		state: Created,
	}
	logger := p.logger.With().Str("pending", pending.ID.String()).Str("key", key).Stringer("mode", mode).Logger()

	switch mode {
	case OfflineOnly:
		pending.setState(Submitted)
		logger.Trace().Msg("Enqueueing cache only")
		if err := p.queue.EnqueueCacheOnly(req); err != nil {
			pending.setState(Failed)
			return nil, fmt.Errorf("could not enqueue %s: %w", key, err)
		}
		return pending, nil

	case NoCache:
		req.SetShouldCache(false)
		pending.setState(Submitted)

	case Default:
		req.SetShouldCache(true)
		pending.setState(Submitted)

	case BypassReadButWrite:
		req.SetShouldCache(true)
		if err := p.evict(pending, logger); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown caching mode %d", int(mode))
	}

	logger.Trace().Msg("Enqueueing")
	if err := p.queue.Enqueue(req); err != nil {
		if entry, ok := pending.resolve(Failed); ok && entry != nil {
			p.restore(pending.Key, *entry, logger)
		}
		return nil, fmt.Errorf("could not enqueue %s: %w", key, err)
	}
	return pending, nil
}

// evict removes the current entry for the pending key from the store, keeping it in pending.
func (p *Policy[R]) evict(pending *Pending, logger zerolog.Logger) error {
	entry, ok, err := p.store.Get(pending.Key)
	if err != nil {
		// without the entry there is nothing to restore, the request itself is still valid
		logger.Warn().Err(err).Msg("Could not read entry to bypass")
		pending.setState(Submitted)
		return nil
	}
	if !ok {
		logger.Trace().Msg("Nothing to bypass")
		pending.setState(Submitted)
		return nil
	}
	if err := p.store.Remove(pending.Key); err != nil {
		pending.setState(Failed)
		return fmt.Errorf("could not evict %s: %w", pending.Key, err)
	}
	logger.Trace().Msg("Evicted entry")
	pending.mutex.Lock()
	pending.entry = &entry
	pending.state = EntryEvicted
	pending.mutex.Unlock()
	return nil
}

// OnSuccess discards any retained entry, the fresh response replaces it.
func (p *Policy[R]) OnSuccess(pending *Pending) {
	if _, ok := pending.resolve(Succeeded); !ok {
		p.logger.Warn().Str("pending", pending.ID.String()).Msg("Pending already resolved")
		return
	}
	p.logger.Trace().Str("pending", pending.ID.String()).Msg("Succeeded")
}

// OnFailure puts any retained entry back into the store.
// The entry is reinserted as is, even if another request has stored a newer one in the meantime.
func (p *Policy[R]) OnFailure(pending *Pending) error {
	logger := p.logger.With().Str("pending", pending.ID.String()).Str("key", pending.Key).Logger()
	entry, ok := pending.resolve(Failed)
	if !ok {
		logger.Warn().Msg("Pending already resolved")
		return nil
	}
	if entry == nil {
		logger.Trace().Msg("Failed, nothing to restore")
		return nil
	}
	return p.restore(pending.Key, *entry, logger)
}

func (p *Policy[R]) restore(key string, entry cache.Entry, logger zerolog.Logger) error {
	if err := p.store.Put(key, entry); err != nil {
		logger.Error().Err(err).Msg("Could not restore evicted entry")
		return fmt.Errorf("could not restore %s: %w", key, err)
	}
	logger.Debug().Msg("Restored evicted entry")
	return nil
}
