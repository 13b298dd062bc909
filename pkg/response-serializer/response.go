package serializer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	responseTimeHeaderName = "Easyrequest-Response-Time"
	requestTimeHeaderName  = "Easyrequest-Request-Time"
)

// TimedResponse is a fully read response, along with the times needed for age calculation.
type TimedResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// The value of the clock at the time of the request that resulted in the stored response.
	RequestTime time.Time
	// The value of the clock at the time the response was received.
	ResponseTime time.Time
}

// StoredResponseToBytes returns the HTTP/1.1 representation of the response,
// with the request and response times added as extra headers.
func StoredResponseToBytes(sRes TimedResponse) ([]byte, error) {
	header := sRes.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set(responseTimeHeaderName, strconv.FormatInt(sRes.ResponseTime.UnixMilli(), 10))
	header.Set(requestTimeHeaderName, strconv.FormatInt(sRes.RequestTime.UnixMilli(), 10))

	res := &http.Response{
		StatusCode:    sRes.StatusCode,
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(sRes.Body)),
		ContentLength: int64(len(sRes.Body)),
	}
	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		return nil, fmt.Errorf("could not serialize response: %w", err)
	}
	return buf.Bytes(), nil
}

// BytesToStoredResponse parses bytes created by StoredResponseToBytes.
func BytesToStoredResponse(b []byte) (TimedResponse, error) {
	sRes := TimedResponse{}
	res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
	if err != nil {
		return sRes, fmt.Errorf("could not parse stored response: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return sRes, fmt.Errorf("could not read stored response body: %w", err)
	}
	resTimeInt, err := strconv.ParseInt(res.Header.Get(responseTimeHeaderName), 10, 64)
	if err != nil {
		return sRes, fmt.Errorf("stored response has no response time: %w", err)
	}
	reqTimeInt, err := strconv.ParseInt(res.Header.Get(requestTimeHeaderName), 10, 64)
	if err != nil {
		return sRes, fmt.Errorf("stored response has no request time: %w", err)
	}
	// delete extra headers
	res.Header.Del(responseTimeHeaderName)
	res.Header.Del(requestTimeHeaderName)

	sRes.StatusCode = res.StatusCode
	sRes.Header = res.Header
	sRes.Body = body
	sRes.ResponseTime = time.UnixMilli(resTimeInt)
	sRes.RequestTime = time.UnixMilli(reqTimeInt)
	return sRes, nil
}
