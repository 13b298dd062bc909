package queue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/always-cache/easyrequest/cache"
	cachekey "github.com/always-cache/easyrequest/pkg/cache-key"
	cacheupdate "github.com/always-cache/easyrequest/pkg/cache-update"
	serializer "github.com/always-cache/easyrequest/pkg/response-serializer"
	"github.com/always-cache/easyrequest/rfc9111"
	"github.com/always-cache/easyrequest/rfc9211"
	"github.com/rs/zerolog"
)

func (q *Queue) process(item *queued) {
	req := item.req
	logger := q.logger.With().
		Str("request", req.ID.String()).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Logger()

	var res *Response
	var err error
	if item.cacheOnly {
		res, err = q.fromCacheOnly(req, logger)
	} else {
		res, err = q.execute(req, logger)
	}

	if err != nil {
		logger.Debug().Err(err).Msg("Delivering error")
	} else {
		logger.Debug().Int("status", res.StatusCode).Stringer("cache", res.CacheStatus).Msg("Delivering response")
	}
	if !req.complete(res, err) {
		logger.Warn().Msg("Request already delivered")
	}
}

func (q *Queue) fromCacheOnly(req *Request, logger zerolog.Logger) (*Response, error) {
	key := req.CacheKey()
	entry, ok, err := q.store.Get(key)
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Could not read cache")
		return nil, &Error{Kind: KindCacheMiss, Err: err}
	}
	if !ok {
		logger.Trace().Str("key", key).Msg("Nothing cached")
		return nil, &Error{Kind: KindCacheMiss, Err: fmt.Errorf("nothing cached for %s", req)}
	}
	res, err := q.cachedResponse(req, entry)
	if err != nil {
		return nil, &Error{Kind: KindParse, Err: err}
	}
	if !entry.Fresh(time.Now()) {
		res.CacheStatus.Detail = "stale"
		res.Header.Set("Cache-Status", res.CacheStatus.String())
	}
	return res, nil
}

func (q *Queue) execute(req *Request, logger zerolog.Logger) (*Response, error) {
	status := rfc9211.CacheStatus{}
	key := req.CacheKey()

	if !req.ShouldCache() {
		status.Forward(rfc9211.FwdReasonBypass)
	} else if entry, ok, err := q.store.Get(key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Could not read cache")
		status.Forward(rfc9211.FwdReasonMiss)
	} else if !ok {
		logger.Trace().Str("key", key).Msg("Cache miss")
		status.Forward(rfc9211.FwdReasonUriMiss)
	} else if !entry.Fresh(time.Now()) {
		logger.Trace().Str("key", key).Msg("Cached response stale")
		status.Forward(rfc9211.FwdReasonStale)
	} else if res, err := q.cachedResponse(req, entry); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Could not decode cached response")
		status.Forward(rfc9211.FwdReasonMiss)
	} else {
		logger.Trace().Str("key", key).Msg("Cache hit")
		return res, nil
	}

	requestTime := time.Now()
	httpRes, err := q.do(context.Background(), req, logger)
	if err != nil {
		if httpRes != nil {
			httpRes.Body.Close()
		}
		return nil, transportError(err)
	}
	defer httpRes.Body.Close()
	body, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, &Error{Kind: KindParse, StatusCode: httpRes.StatusCode, Header: httpRes.Header, Err: err}
	}
	responseTime := time.Now()
	status.FwdStatus = httpRes.StatusCode

	if httpRes.StatusCode < 200 || httpRes.StatusCode > 299 {
		return nil, statusError(httpRes.StatusCode, httpRes.Header, body)
	}

	// the request seen by the rules and the rfc9111 functions
	httpReq, err := req.httpRequest(context.Background())
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Err: err}
	}
	httpRes.Request = httpReq

	if req.ShouldCache() {
		q.rules.Apply(httpRes, logger)
		if expires, stored := q.save(key, httpRes, body, requestTime, responseTime, logger); stored {
			status.Stored = true
			if ttl := time.Until(expires); ttl > 0 {
				status.TimeToLive = int(ttl.Seconds())
			}
		}
	}
	q.invalidate(req, httpReq, httpRes, logger)

	header := httpRes.Header.Clone()
	header.Set("Cache-Status", status.String())
	return &Response{
		StatusCode:   httpRes.StatusCode,
		Header:       header,
		Body:         body,
		CacheStatus:  status,
		RequestTime:  requestTime,
		ResponseTime: responseTime,
		Request:      req,
	}, nil
}

// save stores the response, returning its expiry and whether it was stored.
func (q *Queue) save(key string, res *http.Response, body []byte, requestTime, responseTime time.Time, logger zerolog.Logger) (time.Time, bool) {
	if mustNotStore, err := rfc9111.MustNotStore(res); err != nil || mustNotStore {
		logger.Trace().Err(err).Msg("Response must not be stored")
		return time.Time{}, false
	}

	var expires time.Time
	if _, explicit := rfc9111.FreshnessLifetime(res); explicit {
		expires = rfc9111.GetExpiration(res, responseTime)
	} else if q.defaultTTL > 0 {
		expires = responseTime.Add(q.defaultTTL)
	}

	bytes, err := serializer.StoredResponseToBytes(serializer.TimedResponse{
		StatusCode:   res.StatusCode,
		Header:       res.Header,
		Body:         body,
		RequestTime:  requestTime,
		ResponseTime: responseTime,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Could not serialize response")
		return time.Time{}, false
	}
	if err := q.store.Put(key, cache.Entry{Bytes: bytes, Expires: expires, StoredAt: time.Now()}); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Could not store response")
		return time.Time{}, false
	}
	logger.Trace().Str("key", key).Time("expires", expires).Msg("Stored response")
	return expires, true
}

// invalidate removes the stored GET responses that an unsafe request changed.
func (q *Queue) invalidate(req *Request, httpReq *http.Request, res *http.Response, logger zerolog.Logger) {
	if !rfc9111.UnsafeRequest(httpReq) {
		return
	}
	keyer := cachekey.NewCacheKeyer(req.Namespace)
	for _, uri := range rfc9111.GetInvalidateURIs(httpReq, res) {
		q.remove(keyer, uri, logger)
	}
	for _, update := range cacheupdate.GetCacheUpdates(httpReq, res) {
		uri := update.URL.String()
		if update.Delay == 0 {
			q.remove(keyer, uri, logger)
			continue
		}
		logger.Trace().Str("uri", uri).Dur("delay", update.Delay).Msg("Scheduling invalidation")
		q.after(update.Delay, func() { q.remove(keyer, uri, logger) })
	}
}

func (q *Queue) remove(keyer cachekey.CacheKeyer, uri string, logger zerolog.Logger) {
	getReq, err := http.NewRequest(http.MethodGet, uri, nil)
	if err != nil {
		return
	}
	key, err := keyer.GetKey(getReq)
	if err != nil {
		return
	}
	if err := q.store.Remove(key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Could not invalidate")
		return
	}
	logger.Trace().Str("key", key).Msg("Invalidated")
}

// cachedResponse decodes a stored entry into a response for the request.
func (q *Queue) cachedResponse(req *Request, entry cache.Entry) (*Response, error) {
	stored, err := serializer.BytesToStoredResponse(entry.Bytes)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	status := rfc9211.CacheStatus{}
	status.Hit()
	if ttl := entry.Expires.Sub(now); ttl > 0 {
		status.TimeToLive = int(ttl.Seconds())
	}
	header := stored.Header
	rfc9111.AddAgeHeader(header, stored.ResponseTime, now)
	header.Set("Cache-Status", status.String())
	return &Response{
		StatusCode:   stored.StatusCode,
		Header:       header,
		Body:         stored.Body,
		CacheStatus:  status,
		RequestTime:  stored.RequestTime,
		ResponseTime: stored.ResponseTime,
		Request:      req,
	}, nil
}
