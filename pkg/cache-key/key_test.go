package cachekey

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
)

func TestParseKey(t *testing.T) {
	keygen := NewCacheKeyer("this-is-the-namespace")
	r, _ := http.NewRequest("GET", "http://dev.localhost/page?q=1", nil)
	key, err := keygen.GetKey(r)
	if err != nil {
		t.Fatal(err)
	}
	method, uri, err := keygen.ParseKey(key)
	if err != nil {
		t.Fatalf("%s: %s", key, err)
	}
	if method != "GET" || uri != "http://dev.localhost/page?q=1" {
		t.Fatalf("Parsed %s %s from key %s", method, uri, key)
	}
}

func TestNamespacePrefixIncludesNamespace(t *testing.T) {
	namespace := "this-is-the-namespace"
	keygen := NewCacheKeyer(namespace)
	if !strings.Contains(keygen.NamespacePrefix, namespace) {
		t.Fatalf("NamespacePrefix is %s", keygen.NamespacePrefix)
	}
	if NewCacheKeyer("").NamespacePrefix != "" {
		t.Fatal("Empty namespace should have no prefix")
	}
}

func TestKeyIsDeterministic(t *testing.T) {
	keygen := NewCacheKeyer("")
	makeKey := func(method, body string) string {
		r, _ := http.NewRequest(method, "http://dev.localhost/form", strings.NewReader(body))
		key, err := keygen.GetKey(r)
		if err != nil {
			t.Fatal(err)
		}
		return key
	}
	if makeKey("POST", "a=1") != makeKey("POST", "a=1") {
		t.Fatal("Same request produced different keys")
	}
	if makeKey("POST", "a=1") == makeKey("POST", "a=2") {
		t.Fatal("Different bodies produced the same key")
	}
	if makeKey("POST", "a=1") == makeKey("PUT", "a=1") {
		t.Fatal("Different methods produced the same key")
	}
	if key := makeKey("GET", ""); key != "GET:http://dev.localhost/form\t" {
		t.Fatalf("Key without body is %q", key)
	}
}

func TestKeyRewindsBody(t *testing.T) {
	r, _ := http.NewRequest("POST", "http://dev.localhost/", strings.NewReader("the body"))
	if _, err := NewCacheKeyer("").GetKey(r); err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(r.Body)
	if string(body) != "the body" {
		t.Fatalf("Body after key is %q", body)
	}
}

func TestMultipartKeyIgnoresBoundary(t *testing.T) {
	makeRequest := func(boundary string) *http.Request {
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		mw.SetBoundary(boundary)
		mw.WriteField("name", "value")
		mw.Close()
		r, _ := http.NewRequest("POST", "http://dev.localhost/upload", buf)
		r.Header.Set("Content-Type", mw.FormDataContentType())
		return r
	}
	keygen := NewCacheKeyer("")
	k1, _ := keygen.GetKey(makeRequest("boundary-one"))
	k2, _ := keygen.GetKey(makeRequest("boundary-two"))
	if k1 != k2 {
		t.Fatalf("Keys differ: %q %q", k1, k2)
	}
}

func TestEmptyURL(t *testing.T) {
	r := &http.Request{Method: "GET"}
	if _, err := NewCacheKeyer("").GetKey(r); err != ErrorEmptyURL {
		t.Fatalf("Error is %v", err)
	}
}
