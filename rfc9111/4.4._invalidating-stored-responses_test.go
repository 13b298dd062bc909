package rfc9111

import (
	"net/http"
	"reflect"
	"testing"
)

func TestInvalidateURIs(t *testing.T) {
	req, _ := http.NewRequest("POST", "http://example.com/items", nil)
	res := response(map[string]string{
		"Location":         "/items/1",
		"Content-Location": "http://other.example.com/items/1",
	})
	res.StatusCode = 201
	uris := GetInvalidateURIs(req, res)
	expected := []string{"http://example.com/items", "http://example.com/items/1"}
	if !reflect.DeepEqual(uris, expected) {
		t.Fatalf("URIs are %v", uris)
	}
}

func TestSafeRequestsDoNotInvalidate(t *testing.T) {
	req, _ := http.NewRequest("GET", "http://example.com/items", nil)
	if uris := GetInvalidateURIs(req, response(nil)); uris != nil {
		t.Fatalf("URIs are %v", uris)
	}
	post, _ := http.NewRequest("POST", "http://example.com/items", nil)
	failed := response(nil)
	failed.StatusCode = 500
	if uris := GetInvalidateURIs(post, failed); uris != nil {
		t.Fatalf("URIs for error response are %v", uris)
	}
}
