// Package endpoint declares REST endpoints as data: method, URL template,
// argument names and default query, bound to a client only when called.
// Declarations live in package variables, so every malformed declaration
// panics at load time instead of surfacing on the first call.
package endpoint

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/tencent-go/restbind/codec"
	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/restapi"
	"github.com/tencent-go/restbind/types"
	"github.com/tencent-go/restbind/util"
)

// Definition is a declarative endpoint. B is the request body model and R
// the response model; types.Nil declares either side absent. Definitions are
// immutable: every With builder returns an adjusted copy, so one declaration
// can be shared and specialized freely.
type Definition[B, R any] interface {
	Name() string
	Method() types.Method
	Template() string
	Args() []string
	ContentType() types.ContentType
	BodyType() reflect.Type
	ResponseType() reflect.Type

	WithName(name string) Definition[B, R]
	WithMethod(method types.Method) Definition[B, R]
	WithURL(template string) Definition[B, R]
	WithArgs(args ...string) Definition[B, R]
	WithQueryDefault(key string, value any) Definition[B, R]
	WithQueryParam(key string) Definition[B, R]
	WithContentType(ct types.ContentType) Definition[B, R]

	Bind(client *restapi.Client) *Endpoint[B, R]
}

// NewEndpoint declares an endpoint. The template is parsed immediately: bad
// characters, malformed braces or an unknown method panic right here. The
// placeholder names double as the default argument list, in template order;
// use WithArgs to widen it.
func NewEndpoint[B, R any](method types.Method, template string) Definition[B, R] {
	if err := method.Validate(); err != nil {
		panic(errx.Definition.WithMsgf("unknown method %q for endpoint %q", string(method), template).Err())
	}
	o := settings{
		method:   method,
		template: strings.Trim(strings.TrimSpace(template), "/"),
	}
	o.placeholders = parseTemplate(o.template)
	o.args = append([]string(nil), o.placeholders...)
	o.validate()
	return newDefinition[B, R](o)
}

type queryEntry struct {
	key   string
	value *string // nil marks an argument-fed parameter
}

type settings struct {
	name         string
	method       types.Method
	template     string
	placeholders []string
	args         []string
	query        []queryEntry
	contentType  types.ContentType
}

type definition[B, R any] struct {
	settings
	bound *util.LazyMap[*restapi.Client, *Endpoint[B, R]]
}

func newDefinition[B, R any](o settings) *definition[B, R] {
	return &definition[B, R]{
		settings: o,
		bound:    &util.LazyMap[*restapi.Client, *Endpoint[B, R]]{},
	}
}

func (d *definition[B, R]) Name() string {
	if d.name != "" {
		return d.name
	}
	return d.deriveName()
}

func (d *definition[B, R]) Method() types.Method {
	return d.method
}

func (d *definition[B, R]) Template() string {
	return d.template
}

func (d *definition[B, R]) Args() []string {
	return append([]string(nil), d.args...)
}

func (d *definition[B, R]) ContentType() types.ContentType {
	return d.contentType
}

func (d *definition[B, R]) BodyType() reflect.Type {
	var ptr *B
	return reflect.TypeOf(ptr).Elem()
}

func (d *definition[B, R]) ResponseType() reflect.Type {
	var ptr *R
	return reflect.TypeOf(ptr).Elem()
}

func (d *definition[B, R]) WithName(name string) Definition[B, R] {
	o := d.settings
	o.name = name
	return newDefinition[B, R](o)
}

func (d *definition[B, R]) WithMethod(method types.Method) Definition[B, R] {
	if err := method.Validate(); err != nil {
		panic(errx.Definition.WithMsgf("unknown method %q for endpoint %s", string(method), d.describe()).Err())
	}
	o := d.settings
	o.method = method
	return newDefinition[B, R](o)
}

// WithURL swaps the template and re-derives the argument list from its
// placeholders. Call WithArgs after WithURL when extra arguments are needed.
func (d *definition[B, R]) WithURL(template string) Definition[B, R] {
	o := d.settings
	o.template = strings.Trim(strings.TrimSpace(template), "/")
	o.placeholders = parseTemplate(o.template)
	o.args = append([]string(nil), o.placeholders...)
	o.validate()
	return newDefinition[B, R](o)
}

// WithArgs replaces the argument list. Every template placeholder must be
// covered; extra names feed argument-bound query parameters or are ignored.
func (d *definition[B, R]) WithArgs(args ...string) Definition[B, R] {
	o := d.settings
	o.args = append([]string(nil), args...)
	o.validate()
	return newDefinition[B, R](o)
}

// WithQueryDefault attaches a query parameter sent on every call. The value
// is rendered through the string codecs once, at declaration time.
func (d *definition[B, R]) WithQueryDefault(key string, value any) Definition[B, R] {
	str, err := codec.ValueToString(value)
	if err != nil {
		panic(errx.Wrap(err).WithType(errx.TypeDefinition).
			AppendMsgf("query default %q on endpoint %s", key, d.describe()).Err())
	}
	o := d.settings
	o.query = setQuery(o.query, key, &str)
	o.validate()
	return newDefinition[B, R](o)
}

// WithQueryParam declares a query parameter without a value. It is omitted
// from calls unless overridden per call or fed by the declared argument of
// the same name.
func (d *definition[B, R]) WithQueryParam(key string) Definition[B, R] {
	o := d.settings
	o.query = setQuery(o.query, key, nil)
	o.validate()
	return newDefinition[B, R](o)
}

func (d *definition[B, R]) WithContentType(ct types.ContentType) Definition[B, R] {
	if err := ct.Validate(); err != nil {
		panic(errx.Definition.WithMsgf("unknown content type %q for endpoint %s", string(ct), d.describe()).Err())
	}
	if _, ok := codec.ForContentType(ct); !ok {
		panic(errx.Definition.WithMsgf("no serializer for content type %q on endpoint %s", string(ct), d.describe()).Err())
	}
	o := d.settings
	o.contentType = ct
	return newDefinition[B, R](o)
}

// Bind associates the definition with a client. Binding is memoized: the
// same definition and client always yield the same endpoint, and no I/O
// happens until the endpoint is called.
func (d *definition[B, R]) Bind(client *restapi.Client) *Endpoint[B, R] {
	if client == nil {
		return &Endpoint[B, R]{
			defn: d,
			err:  errx.Definition.WithMsgf("endpoint %s bound to nil client", d.describe()).Err(),
		}
	}
	ep, _ := d.bound.LoadOrLazyStore(client, func() *Endpoint[B, R] {
		return &Endpoint[B, R]{defn: d, client: client}
	})
	return ep
}

var (
	templatePattern = regexp.MustCompile(`^[a-zA-Z0-9\-_./{}]*$`)
	namePattern     = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// parseTemplate extracts placeholder names in template order. Any brace that
// is not part of a well-formed {name} is a declaration error.
func parseTemplate(template string) []string {
	if !templatePattern.MatchString(template) {
		panic(errx.Definition.WithMsgf("invalid characters in URL template %q", template).Err())
	}
	var names []string
	seen := make(map[string]bool)
	for _, match := range util.PlaceholderRegex.FindAllStringSubmatch(template, -1) {
		name := match[1]
		if !namePattern.MatchString(name) {
			panic(errx.Definition.WithMsgf("invalid placeholder {%s} in URL template %q", name, template).Err())
		}
		if seen[name] {
			panic(errx.Definition.WithMsgf("duplicate placeholder {%s} in URL template %q", name, template).Err())
		}
		seen[name] = true
		names = append(names, name)
	}
	if rest := util.PlaceholderRegex.ReplaceAllString(template, ""); strings.ContainsAny(rest, "{}") {
		panic(errx.Definition.WithMsgf("unbalanced braces in URL template %q", template).Err())
	}
	return names
}

func setQuery(entries []queryEntry, key string, value *string) []queryEntry {
	out := make([]queryEntry, 0, len(entries)+1)
	replaced := false
	for _, e := range entries {
		if e.key == key {
			out = append(out, queryEntry{key: key, value: value})
			replaced = true
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, queryEntry{key: key, value: value})
	}
	return out
}

// validate holds the declaration invariants: unique arguments, every
// placeholder covered by an argument, no argument-fed query parameter
// shadowing a placeholder. Violations panic at declaration time.
func (o settings) validate() {
	seen := make(map[string]bool, len(o.args))
	for _, a := range o.args {
		if a == "" || seen[a] {
			panic(errx.Definition.WithMsgf("invalid argument list %v for endpoint %s", o.args, o.describe()).Err())
		}
		seen[a] = true
	}
	for _, p := range o.placeholders {
		if !seen[p] {
			panic(errx.Definition.WithMsgf("placeholder {%s} missing from arguments of endpoint %s", p, o.describe()).Err())
		}
	}
	for _, q := range o.query {
		if q.value != nil {
			continue
		}
		for _, p := range o.placeholders {
			if q.key == p {
				panic(errx.Definition.WithMsgf("query parameter %q shadows placeholder {%s} in endpoint %s", q.key, p, o.describe()).Err())
			}
		}
	}
}

func (o settings) describe() string {
	if o.name != "" {
		return o.name
	}
	return string(o.method) + " /" + o.template
}

func (o settings) deriveName() string {
	var action string
	switch o.method {
	case types.MethodPost:
		action = "create"
	case types.MethodPut:
		action = "update"
	case types.MethodPatch:
		action = "update-partial"
	case types.MethodDelete:
		action = "remove"
	case types.MethodHead:
		action = "head"
	default:
		if strings.Contains(o.template, "{") {
			return "get"
		}
		return "list"
	}
	parts := []string{action}
	for _, f := range strings.FieldsFunc(o.template, func(r rune) bool {
		return r == '-' || r == '_' || r == '/' || r == '.'
	}) {
		if f == "" || strings.HasPrefix(f, "{") {
			continue
		}
		parts = append(parts, strings.ToLower(f))
	}
	return strings.Join(parts, "-")
}
