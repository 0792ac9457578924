package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"

	"golang.org/x/net/http2"

	"github.com/tencent-go/restbind/errx"
)

// New returns a Transport backed by a plain net/http client. Timeouts ride on
// the request context; the client itself sets none.
func New() Transport {
	return NewWithClient(&http.Client{})
}

// NewWithClient wraps an existing http.Client, keeping whatever redirect,
// cookie and TLS behavior it was built with.
func NewWithClient(hc *http.Client) Transport {
	return &httpTransport{client: hc}
}

// NewH2C returns a Transport speaking HTTP/2 over cleartext TCP, for services
// exposed without TLS inside a cluster.
func NewH2C() Transport {
	return NewWithClient(&http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, cfg *tls.Config) (net.Conn, error) {
				dialer := &net.Dialer{}
				return dialer.DialContext(ctx, network, addr)
			},
		},
	})
}

type httpTransport struct {
	client *http.Client
}

func (t *httpTransport) Do(ctx context.Context, req *Request) (*Response, errx.Error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	uri := req.URI()
	hr, e := http.NewRequestWithContext(ctx, string(req.Method), uri, body)
	if e != nil {
		return nil, errx.Wrap(e).AppendMsgf("create request failed. target: %s", uri).Err()
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	res, e := t.client.Do(hr)
	if e != nil {
		return nil, wrapTransportErr(e)
	}
	defer func() { _ = res.Body.Close() }()
	data, e := io.ReadAll(res.Body)
	if e != nil {
		return nil, wrapTransportErr(e)
	}
	return &Response{
		Status: res.StatusCode,
		Header: res.Header,
		Body:   data,
	}, nil
}

func (t *httpTransport) Close() {
	t.client.CloseIdleConnections()
}

func wrapTransportErr(err error) errx.Error {
	t := errx.TypeTransport
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		t = errx.TypeTimeout
	}
	return errx.Wrap(err).WithType(t).AppendMsg("transport request failed").Err()
}
