package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/tencent-go/restbind/errx"
)

// Mock is an in-memory Transport for tests. It records every request it
// receives and replays queued replies in order. An exhausted queue is an
// error, so a test that triggers more calls than it queued fails loudly.
type Mock struct {
	mu       sync.Mutex
	requests []*Request
	replies  []func(*Request) (*Response, errx.Error)
}

func NewMock() *Mock {
	return &Mock{}
}

// Reply queues a canned response.
func (m *Mock) Reply(status int, body []byte) *Mock {
	return m.ReplyFunc(func(*Request) (*Response, errx.Error) {
		return &Response{Status: status, Header: make(http.Header), Body: body}, nil
	})
}

// ReplyJson queues a canned JSON response.
func (m *Mock) ReplyJson(status int, body string) *Mock {
	return m.ReplyFunc(func(*Request) (*Response, errx.Error) {
		h := make(http.Header)
		h.Set("Content-Type", "application/json")
		return &Response{Status: status, Header: h, Body: []byte(body)}, nil
	})
}

// ReplyError queues a transport-level failure.
func (m *Mock) ReplyError(err errx.Error) *Mock {
	return m.ReplyFunc(func(*Request) (*Response, errx.Error) {
		return nil, err
	})
}

// ReplyFunc queues a reply computed from the observed request.
func (m *Mock) ReplyFunc(fn func(req *Request) (*Response, errx.Error)) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, fn)
	return m
}

func (m *Mock) Do(ctx context.Context, req *Request) (*Response, errx.Error) {
	if e := ctx.Err(); e != nil {
		return nil, wrapTransportErr(e)
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.replies) == 0 {
		m.mu.Unlock()
		return nil, errx.Internal.WithMsgf("mock transport: no reply queued for %s %s", req.Method, req.URI()).Err()
	}
	fn := m.replies[0]
	m.replies = m.replies[1:]
	m.mu.Unlock()
	return fn(req)
}

func (m *Mock) Close() {}

// Requests returns the recorded requests in arrival order.
func (m *Mock) Requests() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls reports how many requests reached the mock.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
