package easyrequest

// Callback receives the result of a request.
// Exactly one of the methods is called, once, from a queue worker.
type Callback interface {
	OnResponse(res *Response)
	OnError(err error)
}

// CallbackFuncs adapts functions to a Callback. Nil functions are skipped.
type CallbackFuncs struct {
	Response func(res *Response)
	Error    func(err error)
}

func (c CallbackFuncs) OnResponse(res *Response) {
	if c.Response != nil {
		c.Response(res)
	}
}

func (c CallbackFuncs) OnError(err error) {
	if c.Error != nil {
		c.Error(err)
	}
}

type noopCallback struct{}

func (noopCallback) OnResponse(*Response) {}
func (noopCallback) OnError(error)        {}
