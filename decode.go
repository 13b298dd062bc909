package easyrequest

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/always-cache/easyrequest/queue"
)

// Decode parses the JSON body of a response.
// Failures are reported as queue errors of kind KindParse.
func Decode[T any](res *Response) (T, error) {
	var v T
	if res == nil {
		return v, &queue.Error{Kind: queue.KindParse, Err: errors.New("no response")}
	}
	if err := json.Unmarshal(res.Body, &v); err != nil {
		return v, &queue.Error{Kind: queue.KindParse, StatusCode: res.StatusCode, Body: res.Body, Err: fmt.Errorf("could not decode response: %w", err)}
	}
	return v, nil
}
