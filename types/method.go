package types

import (
	"github.com/tencent-go/restbind/errx"
)

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
	MethodHead   Method = "HEAD"
)

func (m Method) Enum() Enum {
	return RegisterEnum(MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead)
}

func (m Method) Validate() errx.Error {
	if m.Enum().Contains(m) {
		return nil
	}
	return errx.Validation.WithMsgf("invalid method %s", m).Err()
}

// Mutating reports whether the method may change server state. Requests with
// mutating methods carry an idempotency key when the client enables them.
func (m Method) Mutating() bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

type Scheme string

const (
	SchemeHttp  Scheme = "http"
	SchemeHttps Scheme = "https"
)

func (s Scheme) Enum() Enum {
	return RegisterEnum(SchemeHttp, SchemeHttps)
}

func (s Scheme) Validate() errx.Error {
	if s.Enum().Contains(s) {
		return nil
	}
	return errx.Validation.WithMsgf("invalid scheme %s", s).Err()
}

type ContentType string

const (
	ContentTypeApplicationJson           ContentType = "application/json"
	ContentTypeApplicationMsgpack        ContentType = "application/msgpack"
	ContentTypeApplicationFormUrlencoded ContentType = "application/x-www-form-urlencoded"
	ContentTypeApplicationOctetStream    ContentType = "application/octet-stream"
	ContentTypeTextPlain                 ContentType = "text/plain"
)

func (c ContentType) Enum() Enum {
	return RegisterEnum(ContentTypeApplicationJson, ContentTypeApplicationMsgpack,
		ContentTypeApplicationFormUrlencoded, ContentTypeApplicationOctetStream, ContentTypeTextPlain)
}

func (c ContentType) Validate() errx.Error {
	if c.Enum().Contains(c) {
		return nil
	}
	return errx.Validation.WithMsgf("invalid content type %s", c).Err()
}
