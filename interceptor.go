package easyrequest

import "github.com/always-cache/easyrequest/queue"

// Interceptor inspects or replaces a request before it is submitted.
// Returning nil keeps the request as is.
type Interceptor interface {
	Intercept(req *queue.Request) *queue.Request
}

type InterceptorFunc func(req *queue.Request) *queue.Request

func (f InterceptorFunc) Intercept(req *queue.Request) *queue.Request {
	return f(req)
}

// HeaderInterceptor sets a header on every request.
func HeaderInterceptor(name, value string) Interceptor {
	return InterceptorFunc(func(req *queue.Request) *queue.Request {
		req.Header.Set(name, value)
		return nil
	})
}
