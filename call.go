package easyrequest

import (
	"context"

	"github.com/always-cache/easyrequest/policy"
	"github.com/always-cache/easyrequest/queue"
)

// Call is a submitted request.
type Call struct {
	request *queue.Request
	pending *policy.Pending
	// closed once the pending is set
	ready chan struct{}
	done  chan struct{}
	res   *Response
	err   error
}

func newCall(req *queue.Request) *Call {
	return &Call{
		request: req,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Done is closed once the result has been delivered to the callback.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the result is delivered or the context is done.
func (c *Call) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-c.done:
		return c.res, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Request returns the submitted request, after interceptors.
func (c *Call) Request() *queue.Request {
	return c.request
}

// Pending returns the dispatch state of the request.
func (c *Call) Pending() *policy.Pending {
	return c.pending
}

// complete resolves the pending request and hands the result to the callback.
func (c *Client) complete(call *Call, callback Callback, res *Response, err error) {
	if err != nil {
		if restoreErr := c.policy.OnFailure(call.pending); restoreErr != nil {
			c.log.Error().Err(restoreErr).Str("request", call.request.ID.String()).Msg("Could not restore cache entry")
		}
		call.err = err
		callback.OnError(err)
	} else {
		c.policy.OnSuccess(call.pending)
		call.res = res
		callback.OnResponse(res)
	}
	close(call.done)
}
