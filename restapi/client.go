package restapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tencent-go/restbind/codec"
	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/transport"
	"github.com/tencent-go/restbind/types"
)

const defaultTimeout = 10 * time.Second

const (
	HeaderRequestID      = "X-Request-Id"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// Request is one dispatch through a client. The path is relative to the
// client's prefix; header entries override the client defaults per key.
type Request struct {
	Method types.Method
	Path   types.Path
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Response carries the raw reply plus, when the client owns a payload codec,
// the cleanup-decoded body in Data. Endpoints parse Body into typed models;
// Data exists for callers working without a declared response schema.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Data   any
}

// SetupFunc is a one-time handshake run during New, before the client is
// handed out. Returned headers (a session token, usually) become client
// defaults; an error aborts construction.
type SetupFunc func(ctx context.Context, c *Client) (http.Header, errx.Error)

// ResponseHook runs after cleanup on every successful response.
type ResponseHook func(res *Response) errx.Error

type options struct {
	transport      transport.Transport
	codec          codec.Serializer
	header         http.Header
	setup          SetupFunc
	timeout        time.Duration
	idempotencyKey bool
	hooks          []ResponseHook
}

type Option func(*options)

func WithTransport(t transport.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithCodec sets the payload serializer. It decides the Content-Type and
// Accept defaults and the cleanup decode of response bodies.
func WithCodec(s codec.Serializer) Option {
	return func(o *options) {
		o.codec = s
	}
}

func WithHeader(key, value string) Option {
	return func(o *options) {
		if o.header == nil {
			o.header = make(http.Header)
		}
		o.header.Set(key, value)
	}
}

// WithTimeout overrides Config.Timeout. Zero keeps the configured value,
// negative disables the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

func WithSetup(fn SetupFunc) Option {
	return func(o *options) {
		o.setup = fn
	}
}

// WithIdempotencyKey stamps a fresh Idempotency-Key header on every mutating
// request that does not already carry one.
func WithIdempotencyKey() Option {
	return func(o *options) {
		o.idempotencyKey = true
	}
}

func WithResponseHook(fn ResponseHook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, fn)
	}
}

// Client dispatches requests against one host. It is immutable after New and
// safe for concurrent use; all per-call state lives in Request values.
type Client struct {
	config         Config
	prefix         types.Path
	transport      transport.Transport
	codec          codec.Serializer
	header         http.Header
	timeout        time.Duration
	idempotencyKey bool
	hooks          []ResponseHook
}

func New(config Config, opts ...Option) (*Client, errx.Error) {
	if err := config.Validate(); err != nil {
		return nil, errx.Wrap(err).AppendMsg("invalid client config").Err()
	}
	if config.Scheme == "" {
		config.Scheme = types.SchemeHttps
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		o.transport = transport.New()
	}
	if o.timeout == 0 {
		o.timeout = config.Timeout.Std()
	}
	if o.timeout == 0 {
		o.timeout = defaultTimeout
	}

	c := &Client{
		config:         config,
		prefix:         types.NewPath(config.PathPrefix),
		transport:      o.transport,
		codec:          o.codec,
		header:         make(http.Header),
		timeout:        o.timeout,
		idempotencyKey: o.idempotencyKey,
		hooks:          o.hooks,
	}
	mergeHeader(c.header, config.Header)
	mergeHeader(c.header, o.header)

	if o.setup != nil {
		ctx, cancel := c.callContext(context.Background())
		extra, err := o.setup(ctx, c)
		cancel()
		if err != nil {
			c.transport.Close()
			return nil, errx.Wrap(err).AppendMsg("client setup failed").Err()
		}
		mergeHeader(c.header, extra)
	}

	logrus.WithFields(logrus.Fields{
		"scheme": string(c.config.Scheme),
		"host":   c.config.Host,
		"prefix": c.prefix.String(),
	}).Debug("Api client ready")
	return c, nil
}

// NewJson builds a client with the JSON payload codec preset.
func NewJson(config Config, opts ...Option) (*Client, errx.Error) {
	return New(config, append([]Option{WithCodec(codec.Json())}, opts...)...)
}

// NewMsgpack builds a client with the msgpack payload codec preset.
func NewMsgpack(config Config, opts ...Option) (*Client, errx.Error) {
	return New(config, append([]Option{WithCodec(codec.Msgpack())}, opts...)...)
}

func (c *Client) Config() Config {
	return c.config
}

func (c *Client) Codec() codec.Serializer {
	return c.codec
}

// Close releases idle transport connections. The client stays usable.
func (c *Client) Close() {
	c.transport.Close()
}

// Do dispatches one request and applies cleanup to the reply. At most one
// network request is made per call; there are no retries.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, errx.Error) {
	if req == nil {
		return nil, errx.Argument.WithMsg("nil request").Err()
	}
	method := req.Method
	if method == "" {
		method = types.MethodGet
	}
	if err := method.Validate(); err != nil {
		return nil, errx.Wrap(err).WithType(errx.TypeArgument).Err()
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	header := make(http.Header)
	mergeHeader(header, c.header)
	mergeHeader(header, req.Header)
	if header.Get(HeaderRequestID) == "" {
		header.Set(HeaderRequestID, types.NewID().String())
	}
	if c.idempotencyKey && method.Mutating() && header.Get(HeaderIdempotencyKey) == "" {
		header.Set(HeaderIdempotencyKey, uuid.NewString())
	}
	if c.codec != nil {
		contentType := string(c.codec.ContentType())
		if len(req.Body) > 0 && header.Get("Content-Type") == "" {
			header.Set("Content-Type", contentType)
		}
		if header.Get("Accept") == "" {
			header.Set("Accept", contentType)
		}
	}

	treq := &transport.Request{
		Method: method,
		URL:    c.buildURL(req.Path),
		Query:  req.Query,
		Header: header,
		Body:   req.Body,
	}

	logrus.WithFields(logrus.Fields{
		"requestId": header.Get(HeaderRequestID),
		"method":    string(method),
		"url":       treq.URI(),
	}).Debug("Dispatching request")

	tres, err := c.transport.Do(ctx, treq)
	if err != nil {
		return nil, errx.Wrap(err).AppendMsgf("%s %s failed", method, treq.URL).Err()
	}

	res := &Response{
		Status: tres.Status,
		Header: tres.Header,
		Body:   tres.Body,
	}
	if err := c.clean(treq, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) buildURL(path types.Path) string {
	p := c.prefix.Join(path).String()
	if c.config.AppendTrailingSlash && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return string(c.config.Scheme) + "://" + c.config.Host + p
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

// clean enforces the status contract and pre-decodes the payload, so callers
// see typed errors instead of raw wire responses. An empty body is left as is
// even when a codec is present.
func (c *Client) clean(req *transport.Request, res *Response) errx.Error {
	if res.Status < http.StatusOK || res.Status >= http.StatusMultipleChoices {
		return errx.HTTP.WithCode(res.Status).
			WithMsgf("%d %s for %s %s", res.Status, http.StatusText(res.Status), req.Method, req.URI()).
			Err()
	}
	if decoder := c.decoder(req, res); decoder != nil && len(res.Body) > 0 {
		var data any
		if err := decoder.Unmarshal(res.Body, &data); err != nil {
			return errx.Wrap(err).AppendMsg("response cleanup failed").Err()
		}
		res.Data = data
	}
	for _, hook := range c.hooks {
		if err := hook(res); err != nil {
			return err
		}
	}
	return nil
}

// decoder picks the codec for the cleanup decode: the response's declared
// content type wins, then the content type the request asked for, then the
// client codec.
func (c *Client) decoder(req *transport.Request, res *Response) codec.Serializer {
	for _, header := range []string{res.Header.Get("Content-Type"), req.Header.Get("Accept")} {
		name, _, _ := strings.Cut(header, ";")
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		if decoder, ok := codec.ForContentType(types.ContentType(name)); ok {
			return decoder
		}
	}
	return c.codec
}

func mergeHeader(dst, src http.Header) {
	for key, values := range src {
		dst.Del(key)
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
