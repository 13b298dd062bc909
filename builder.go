package easyrequest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/always-cache/easyrequest/policy"
	"github.com/always-cache/easyrequest/queue"
)

// RequestBuilder configures a request.
// Setters return the builder, invalid values are ignored.
type RequestBuilder struct {
	client   *Client
	method   string
	url      string
	body     []byte
	params   map[string]string
	headers  http.Header
	query    url.Values
	mode     policy.CachingMode
	retry    queue.RetryPolicy
	priority queue.Priority
	callback Callback
}

// SetBody sets the raw request body. Form params are not sent if a body is set.
func (b *RequestBuilder) SetBody(body []byte) *RequestBuilder {
	if body != nil {
		b.body = body
	}
	return b
}

func (b *RequestBuilder) SetBodyString(body string) *RequestBuilder {
	return b.SetBody([]byte(body))
}

// AddParams adds form fields, sent url encoded as the body.
func (b *RequestBuilder) AddParams(params map[string]string) *RequestBuilder {
	for k, v := range params {
		b.AddParam(k, v)
	}
	return b
}

func (b *RequestBuilder) AddParam(key, value string) *RequestBuilder {
	if key != "" {
		b.params[key] = value
	}
	return b
}

func (b *RequestBuilder) AddHeaders(headers map[string]string) *RequestBuilder {
	for k, v := range headers {
		b.AddHeader(k, v)
	}
	return b
}

func (b *RequestBuilder) AddHeader(name, value string) *RequestBuilder {
	if name != "" {
		b.headers.Set(name, value)
	}
	return b
}

func (b *RequestBuilder) AddQueryParam(key, value string) *RequestBuilder {
	if key != "" {
		b.query.Add(key, value)
	}
	return b
}

func (b *RequestBuilder) SetCachingMode(mode policy.CachingMode) *RequestBuilder {
	switch mode {
	case policy.Default, policy.NoCache, policy.OfflineOnly, policy.BypassReadButWrite:
		b.mode = mode
	}
	return b
}

func (b *RequestBuilder) SetTimeout(timeout time.Duration) *RequestBuilder {
	if timeout > 0 {
		b.retry.Timeout = timeout
	}
	return b
}

func (b *RequestBuilder) SetMaxRetries(retries int) *RequestBuilder {
	if retries > 0 {
		b.retry.MaxRetries = retries
	}
	return b
}

func (b *RequestBuilder) SetBackoffMultiplier(multiplier float64) *RequestBuilder {
	if multiplier > 0 {
		b.retry.BackoffMultiplier = multiplier
	}
	return b
}

func (b *RequestBuilder) SetPriority(priority queue.Priority) *RequestBuilder {
	if priority >= queue.Low && priority <= queue.Immediate {
		b.priority = priority
	}
	return b
}

func (b *RequestBuilder) SetCallback(callback Callback) *RequestBuilder {
	if callback != nil {
		b.callback = callback
	}
	return b
}

// Execute submits the request.
// The result is delivered to the callback and through the returned Call.
// An error is returned if the request could not be submitted,
// in which case nothing will be delivered.
func (b *RequestBuilder) Execute(ctx context.Context) (*Call, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, err := b.build()
	if err != nil {
		return nil, err
	}
	for _, interceptor := range b.client.getInterceptors() {
		if replaced := interceptor.Intercept(req); replaced != nil {
			req = replaced
		}
	}
	req.Retry = b.retry

	callback := b.callback
	if callback == nil {
		callback = noopCallback{}
	}
	call := newCall(req)
	req.OnDelivery(func(res *Response, err error) {
		// the pending is only known once Submit returns
		<-call.ready
		b.client.complete(call, callback, res, err)
	})

	b.client.log.Trace().Str("request", req.ID.String()).Stringer("mode", b.mode).Msgf("Submitting %s", req)
	pending, err := b.client.policy.Submit(req, b.mode)
	if err != nil {
		return nil, err
	}
	call.pending = pending
	close(call.ready)
	return call, nil
}

// Do executes the request and waits for the result.
func (b *RequestBuilder) Do(ctx context.Context) (*Response, error) {
	call, err := b.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return call.Wait(ctx)
}

// build creates the queue request from the builder.
func (b *RequestBuilder) build() (*queue.Request, error) {
	if b.url == "" {
		return nil, policy.ErrInvalidTarget
	}
	u, err := url.Parse(b.url)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", policy.ErrInvalidTarget, b.url)
	}
	if len(b.query) > 0 {
		q := u.Query()
		for k, values := range b.query {
			for _, v := range values {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	body := b.body
	headers := b.headers.Clone()
	if body == nil && len(b.params) > 0 {
		form := url.Values{}
		for k, v := range b.params {
			form.Set(k, v)
		}
		body = []byte(form.Encode())
		if headers.Get("Content-Type") == "" {
			headers.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
		}
	}

	req, err := queue.NewRequest(b.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", policy.ErrInvalidTarget, err)
	}
	req.Header = headers
	req.Priority = b.priority
	req.Namespace = b.client.namespace
	return req, nil
}
