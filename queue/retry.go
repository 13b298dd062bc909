package queue

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// maxRetryWait caps the wait between two attempts.
const maxRetryWait = 30 * time.Second

// retryClient returns a client executing the request with its retry policy.
// All clients share the transport, and with it the connection pool.
func (q *Queue) retryClient(policy RetryPolicy, logger zerolog.Logger) *retryablehttp.Client {
	timeout := policy.Timeout
	if timeout <= 0 {
		timeout = DefaultRetryPolicy().Timeout
	}
	multiplier := policy.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	return &retryablehttp.Client{
		HTTPClient: &http.Client{
			Transport: q.transport,
			Timeout:   timeout,
		},
		Logger:       leveledLogger{logger},
		RetryWaitMin: timeout,
		RetryWaitMax: maxRetryWait,
		RetryMax:     max(policy.MaxRetries, 0),
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      multiplierBackoff(multiplier),
		// return the last response instead of an error, so error responses reach the caller
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
}

// multiplierBackoff waits min * multiplier^attempt before each retry, up to max.
func multiplierBackoff(multiplier float64) retryablehttp.Backoff {
	return func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		wait := float64(min) * math.Pow(multiplier, float64(attemptNum))
		if wait > float64(max) || math.IsInf(wait, 0) {
			return max
		}
		return time.Duration(wait)
	}
}

func (q *Queue) do(ctx context.Context, req *Request, logger zerolog.Logger) (*http.Response, error) {
	httpReq, err := req.httpRequest(ctx)
	if err != nil {
		return nil, err
	}
	retryReq, err := retryablehttp.FromRequest(httpReq)
	if err != nil {
		return nil, err
	}
	return q.retryClient(req.Retry, logger).Do(retryReq)
}

// leveledLogger passes retryablehttp logs on to zerolog.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Trace().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
