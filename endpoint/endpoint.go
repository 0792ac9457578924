package endpoint

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tencent-go/restbind/codec"
	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/restapi"
	"github.com/tencent-go/restbind/schema"
	"github.com/tencent-go/restbind/types"
	"github.com/tencent-go/restbind/util"
)

// Endpoint is a Definition bound to a client. It is immutable; the With
// builders stage per-call overrides on copies, so a bound endpoint can be
// shared and decorated concurrently without locks.
type Endpoint[B, R any] struct {
	defn   *definition[B, R]
	client *restapi.Client
	query  url.Values
	header http.Header
	body   *B
	err    errx.Error
}

func (e *Endpoint[B, R]) Definition() Definition[B, R] {
	return e.defn
}

func (e *Endpoint[B, R]) Client() *restapi.Client {
	return e.client
}

func (e *Endpoint[B, R]) copy() *Endpoint[B, R] {
	c := *e
	c.query = cloneValues(e.query)
	c.header = e.header.Clone()
	return &c
}

// WithQuery merges values into the staged per-call query; staged keys win
// over declaration-time defaults.
func (e *Endpoint[B, R]) WithQuery(values url.Values) *Endpoint[B, R] {
	c := e.copy()
	if c.query == nil {
		c.query = make(url.Values, len(values))
	}
	for k, vs := range values {
		c.query[k] = append([]string(nil), vs...)
	}
	return c
}

// WithQueryValue stages a single query parameter, rendering the value
// through the string codecs.
func (e *Endpoint[B, R]) WithQueryValue(key string, value any) *Endpoint[B, R] {
	c := e.copy()
	str, err := codec.ValueToString(value)
	if err != nil {
		c.err = errx.Wrap(err).WithType(errx.TypeArgument).AppendMsgf("query value %q", key).Err()
		return c
	}
	if c.query == nil {
		c.query = make(url.Values)
	}
	c.query.Set(key, str)
	return c
}

// WithQueryModel stages a whole query model, encoded from its `query` struct
// tags.
func (e *Endpoint[B, R]) WithQueryModel(model any) *Endpoint[B, R] {
	c := e.copy()
	if err := schema.Validate(model); err != nil {
		c.err = errx.Wrap(err).WithType(errx.TypeArgument).AppendMsg("query model").Err()
		return c
	}
	values := make(map[string][]string)
	if err := codec.Query().Extract(model, values); err != nil {
		c.err = errx.Wrap(err).WithType(errx.TypeArgument).AppendMsg("query model").Err()
		return c
	}
	if c.query == nil {
		c.query = make(url.Values, len(values))
	}
	for k, vs := range values {
		c.query[k] = vs
	}
	return c
}

func (e *Endpoint[B, R]) WithHeader(key, value string) *Endpoint[B, R] {
	c := e.copy()
	if c.header == nil {
		c.header = make(http.Header)
	}
	c.header.Set(key, value)
	return c
}

// WithBody stages the request body model for the next Call.
func (e *Endpoint[B, R]) WithBody(body *B) *Endpoint[B, R] {
	c := e.copy()
	c.body = body
	return c
}

// Call dispatches the endpoint and parses the reply into R. Argument and
// body failures surface before any I/O; R = types.Nil skips response
// parsing entirely.
func (e *Endpoint[B, R]) Call(ctx context.Context, args ...any) (*R, errx.Error) {
	res, err := e.CallRaw(ctx, args...)
	if err != nil {
		return nil, err
	}
	return e.parse(res)
}

// CallRaw dispatches the endpoint and returns the cleaned response without
// response-model parsing.
func (e *Endpoint[B, R]) CallRaw(ctx context.Context, args ...any) (*restapi.Response, errx.Error) {
	req, err := e.buildRequest(args)
	if err != nil {
		return nil, err
	}
	return e.client.Do(ctx, req)
}

func (e *Endpoint[B, R]) buildRequest(args []any) (*restapi.Request, errx.Error) {
	if e.err != nil {
		return nil, e.err
	}
	named, err := e.matchArgs(args)
	if err != nil {
		return nil, err
	}
	body, err := e.marshalBody()
	if err != nil {
		return nil, err
	}

	header := e.header
	if e.defn.contentType != "" {
		header = header.Clone()
		if header == nil {
			header = make(http.Header)
		}
		if header.Get("Accept") == "" {
			header.Set("Accept", string(e.defn.contentType))
		}
		if len(body) > 0 && header.Get("Content-Type") == "" {
			header.Set("Content-Type", string(e.defn.contentType))
		}
	}

	return &restapi.Request{
		Method: e.defn.method,
		Path:   e.defn.expand(named),
		Query:  e.defn.queryValues(named, e.query),
		Header: header,
		Body:   body,
	}, nil
}

// matchArgs pairs positional arguments with the declared names, in order.
// The arity must match exactly; each value is rendered through the string
// codecs.
func (e *Endpoint[B, R]) matchArgs(args []any) (map[string]string, errx.Error) {
	names := e.defn.args
	if len(args) != len(names) {
		return nil, errx.Argument.
			WithMsgf("%s requires %d arguments, but got %d", e.defn.Name(), len(names), len(args)).Err()
	}
	if len(names) == 0 {
		return nil, nil
	}
	named := make(map[string]string, len(names))
	for i, arg := range args {
		str, err := codec.ValueToString(arg)
		if err != nil {
			return nil, errx.Wrap(err).WithType(errx.TypeArgument).AppendMsgf("argument %q", names[i]).Err()
		}
		named[names[i]] = str
	}
	return named, nil
}

func (e *Endpoint[B, R]) marshalBody() ([]byte, errx.Error) {
	if e.body == nil {
		return nil, nil
	}
	data, err := schema.Serialize(e.codec(), e.body)
	if err != nil {
		return nil, errx.Wrap(err).WithType(errx.TypeRequestValidation).Err()
	}
	return data, nil
}

func (e *Endpoint[B, R]) parse(res *restapi.Response) (*R, errx.Error) {
	if types.IsNilType(e.defn.ResponseType()) {
		return new(R), nil
	}
	if len(res.Body) == 0 {
		return nil, errx.ResponseValidation.
			WithMsgf("%s returned no payload for response model %s", e.defn.Name(), e.defn.ResponseType()).Err()
	}
	out, err := schema.Parse[R](e.codec(), res.Body)
	if err != nil {
		if err.Type() == errx.TypeDecode {
			return nil, err
		}
		return nil, errx.Wrap(err).WithType(errx.TypeResponseValidation).Err()
	}
	return out, nil
}

// codec resolves the payload serializer: an explicit content type on the
// definition wins, then the owning client's codec, then JSON.
func (e *Endpoint[B, R]) codec() codec.Serializer {
	if ct := e.defn.contentType; ct != "" {
		if s, ok := codec.ForContentType(ct); ok {
			return s
		}
	}
	if e.client != nil {
		if s := e.client.Codec(); s != nil {
			return s
		}
	}
	return codec.Json()
}

// expand substitutes matched arguments into the template, path-escaping
// every value. Declaration invariants guarantee each placeholder has a
// matched argument.
func (o settings) expand(named map[string]string) types.Path {
	expanded := util.PlaceholderRegex.ReplaceAllStringFunc(o.template, func(m string) string {
		return url.PathEscape(named[m[1:len(m)-1]])
	})
	return types.NewPath(expanded)
}

// queryValues merges declaration defaults, argument-fed parameters and
// per-call overrides; later sources win per key. Argument-fed keys with no
// argument and no override are omitted.
func (o settings) queryValues(named map[string]string, overrides url.Values) url.Values {
	out := make(url.Values)
	for _, entry := range o.query {
		if entry.value != nil {
			out.Set(entry.key, *entry.value)
			continue
		}
		if v, ok := named[entry.key]; ok {
			out.Set(entry.key, v)
		}
	}
	for k, vs := range overrides {
		out[k] = append([]string(nil), vs...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
