package queue

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMultiplierBackoff(t *testing.T) {
	backoff := multiplierBackoff(2)
	require.Equal(t, 10*time.Millisecond, backoff(10*time.Millisecond, time.Second, 0, nil))
	require.Equal(t, 20*time.Millisecond, backoff(10*time.Millisecond, time.Second, 1, nil))
	require.Equal(t, 40*time.Millisecond, backoff(10*time.Millisecond, time.Second, 2, nil))
	require.Equal(t, time.Second, backoff(10*time.Millisecond, time.Second, 20, nil))

	constant := multiplierBackoff(1)
	require.Equal(t, 10*time.Millisecond, constant(10*time.Millisecond, time.Second, 5, nil))
}

func TestStatusError(t *testing.T) {
	cases := map[int]Kind{
		http.StatusUnauthorized:        KindAuthFailure,
		http.StatusForbidden:           KindAuthFailure,
		http.StatusNotFound:            KindClient,
		http.StatusInternalServerError: KindServer,
		http.StatusBadGateway:          KindServer,
		http.StatusNotModified:         KindUnknown,
	}
	for status, kind := range cases {
		require.Equal(t, kind, statusError(status, nil, nil).Kind, status)
	}
}

func TestTransportError(t *testing.T) {
	require.Equal(t, KindTimeout, transportError(context.DeadlineExceeded).Kind)
	require.Equal(t, KindUnknown, transportError(context.Canceled).Kind)
	cause := errors.New("connection refused")
	err := transportError(cause)
	require.Equal(t, KindNoConnection, err.Kind)
	require.ErrorIs(t, err, cause)
}

func TestRetryClientDefaults(t *testing.T) {
	q := &Queue{transport: http.DefaultTransport}
	client := q.retryClient(RetryPolicy{MaxRetries: -1}, zerolog.Nop())
	require.Equal(t, DefaultRetryPolicy().Timeout, client.HTTPClient.Timeout)
	require.Equal(t, 0, client.RetryMax)
}
