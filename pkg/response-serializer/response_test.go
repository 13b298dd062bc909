package serializer

import (
	"net/http"
	"testing"
	"time"
)

func TestTimedResponseSerialization(t *testing.T) {
	header := http.Header{}
	header.Add("Test", "-ing")
	header.Add("Content-Length", "999")
	// create times now and now + 1s
	reqTime := time.Now().Truncate(time.Millisecond)
	resTime := reqTime.Add(time.Second)
	bts, err := StoredResponseToBytes(TimedResponse{
		StatusCode:   201,
		Header:       header,
		Body:         []byte("This is the body"),
		ResponseTime: resTime,
		RequestTime:  reqTime,
	})
	if err != nil {
		t.Fatalf("Error creating bytes: %+v", err)
	}
	// the original header must not be touched
	if header.Get(responseTimeHeaderName) != "" {
		t.Fatalf("Original header mutated %+v", header)
	}
	res, err := BytesToStoredResponse(bts)
	if err != nil {
		t.Fatalf("Error creating response: %+v", err)
	}
	if res.StatusCode != 201 {
		t.Fatalf("Status is %d", res.StatusCode)
	}
	if res.Header.Get("Test") != "-ing" {
		t.Fatalf("Test header wrong %+v", res.Header)
	}
	if res.Header.Get(responseTimeHeaderName) != "" || res.Header.Get(requestTimeHeaderName) != "" {
		t.Fatalf("Time headers not removed %+v", res.Header)
	}
	if string(res.Body) != "This is the body" {
		t.Fatalf("Body: %s", res.Body)
	}
	if !res.RequestTime.Equal(reqTime) || !res.ResponseTime.Equal(resTime) {
		t.Fatalf("Times are %s %s", res.RequestTime, res.ResponseTime)
	}
}

func TestEmptyBody(t *testing.T) {
	bts, err := StoredResponseToBytes(TimedResponse{StatusCode: 204})
	if err != nil {
		t.Fatalf("Error creating bytes: %+v", err)
	}
	res, err := BytesToStoredResponse(bts)
	if err != nil {
		t.Fatalf("Error creating response: %+v", err)
	}
	if res.StatusCode != 204 || len(res.Body) != 0 {
		t.Fatalf("Response is %+v", res)
	}
}

func TestGarbage(t *testing.T) {
	if _, err := BytesToStoredResponse([]byte("not a response")); err == nil {
		t.Fatal("No error for garbage")
	}
}
