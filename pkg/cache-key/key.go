package cachekey

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

var ErrorEmptyURL = errors.New("request has no URL")

const (
	prefixSeparator = "|"
	methodSeparator = ":"
	bodySeparator   = "\t"
)

type CacheKeyer struct {
	// Namespace for the keys, so several clients may share one store.
	// Usually empty.
	Namespace string
	// Key prefix for this namespace
	NamespacePrefix string
}

func NewCacheKeyer(namespace string) CacheKeyer {
	c := CacheKeyer{Namespace: namespace}
	if namespace != "" {
		c.NamespacePrefix = namespace + prefixSeparator
	}
	return c
}

// MethodPrefix gets the key prefix for the namespace with the given method.
// E.g. prefix for all GET requests in the cache.
func (c CacheKeyer) MethodPrefix(method string) string {
	return c.NamespacePrefix + method + methodSeparator
}

// GetKey returns the cache key for a request.
// The key depends on the method and the full URL.
// If the request has a body, a hash of the body is appended.
// When it returns, the request body will be rewound to the beginning.
func (c CacheKeyer) GetKey(r *http.Request) (string, error) {
	if r.URL == nil || r.URL.String() == "" {
		return "", ErrorEmptyURL
	}
	key := c.MethodPrefix(r.Method) + r.URL.String() + bodySeparator
	if multipartHash, err := multipartHash(r); err != nil {
		return "", err
	} else if multipartHash != "" {
		return key + multipartHash, nil
	}
	bodyHash, err := bodyHash(r)
	if err != nil {
		return "", err
	}
	return key + bodyHash, nil
}

// ParseKey returns the method and URL that a key was created for.
func (c CacheKeyer) ParseKey(key string) (method, uri string, err error) {
	if !strings.HasPrefix(key, c.NamespacePrefix) {
		return "", "", fmt.Errorf("key %q is not in namespace %q", key, c.Namespace)
	}
	keyNoNamespace := strings.TrimPrefix(key, c.NamespacePrefix)
	keyNoBody, _, found := strings.Cut(keyNoNamespace, bodySeparator)
	if !found {
		return "", "", fmt.Errorf("malformed key: %q", key)
	}
	method, uri, found = strings.Cut(keyNoBody, methodSeparator)
	if !found {
		return "", "", fmt.Errorf("malformed key: %q", key)
	}
	return method, uri, nil
}

// multipartHash returns the hash of the parts of a multipart request body.
// The boundary is not part of the hash, since it is usually random.
// It returns an empty string if the request is not multipart.
func multipartHash(r *http.Request) (string, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return "", nil
	}
	body, err := readAndRewind(r)
	if err != nil || len(body) == 0 {
		return "", err
	}

	h := sha256.New()
	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// not valid multipart after all, fall back to the plain body hash
			return "", nil
		}
		io.WriteString(h, p.FormName()+"\n")
		if _, err := io.Copy(h, p); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// bodyHash returns the hash of a request body, or an empty string if there is no body.
func bodyHash(r *http.Request) (string, error) {
	body, err := readAndRewind(r)
	if err != nil || len(body) == 0 {
		return "", err
	}
	return fmt.Sprintf("%x", sha256.Sum256(body)), nil
}

func readAndRewind(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read request body: %w", err)
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
