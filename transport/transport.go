// Package transport carries HTTP requests for the binding layer. The
// interface is the single seam a host environment needs to replace: the rest
// of the pipeline has no suspension points and no I/O of its own.
package transport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/types"
)

type Request struct {
	Method types.Method
	URL    string // absolute, without the query string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// URI renders the final request target, appending the encoded query when one
// is present.
func (r *Request) URI() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	return r.URL + "?" + r.Query.Encode()
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport performs one HTTP exchange. Connection failures surface as
// transport-kind errors and deadline expiry as timeout-kind errors; an HTTP
// error status is NOT an error here — it comes back as a regular Response and
// the API layer decides what to raise.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, errx.Error)
	Close()
}
