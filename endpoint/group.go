package endpoint

import (
	"context"
	"net/http"
	"strings"

	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/page"
	"github.com/tencent-go/restbind/restapi"
	"github.com/tencent-go/restbind/types"
	"github.com/tencent-go/restbind/util"
)

// Group declares a conventional REST resource: a URL prefix plus the actions
// the remote API implements. M is the item model, L the list envelope.
// Placeholders in the prefix become leading arguments of every action, so
// nested resources like "accounts/{account}/objects" need no extra wiring.
type Group[M, L any] interface {
	Prefix() types.Path
	Actions() []Action
	Has(action Action) bool
	WithActions(actions ...Action) Group[M, L]
	Bind(client *restapi.Client) *BoundGroup[M, L]
}

func NewGroup[M, L any](prefix string) Group[M, L] {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	parseTemplate(p)
	return &group[M, L]{
		prefix: p,
		bound:  &util.LazyMap[*restapi.Client, *BoundGroup[M, L]]{},
	}
}

type group[M, L any] struct {
	prefix  string
	actions []Action

	list          Definition[types.Nil, L]
	retrieve      Definition[types.Nil, M]
	create        Definition[M, M]
	update        Definition[M, M]
	partialUpdate Definition[M, M]
	remove        Definition[types.Nil, types.Nil]
	head          Definition[types.Nil, types.Nil]

	bound *util.LazyMap[*restapi.Client, *BoundGroup[M, L]]
}

func (g *group[M, L]) Prefix() types.Path {
	return types.Path(g.prefix)
}

func (g *group[M, L]) Actions() []Action {
	return append([]Action(nil), g.actions...)
}

func (g *group[M, L]) Has(action Action) bool {
	for _, a := range g.actions {
		if a == action {
			return true
		}
	}
	return false
}

// WithActions declares actions on a copy of the group. Unknown and duplicate
// actions panic; each declared action's endpoint definition is built right
// here, so a bad prefix fails at declaration time too.
func (g *group[M, L]) WithActions(actions ...Action) Group[M, L] {
	c := *g
	c.actions = append([]Action(nil), g.actions...)
	c.bound = &util.LazyMap[*restapi.Client, *BoundGroup[M, L]]{}
	for _, action := range actions {
		if err := action.Validate(); err != nil {
			panic(errx.Definition.WithMsgf("unknown action %q for group /%s", string(action), g.prefix).Err())
		}
		if c.Has(action) {
			panic(errx.Definition.WithMsgf("duplicate action %q for group /%s", string(action), g.prefix).Err())
		}
		c.actions = append(c.actions, action)
		c.declare(action)
	}
	return &c
}

func (c *group[M, L]) declare(action Action) {
	switch action {
	case ActionList:
		c.list = List[L](c.prefix)
	case ActionRetrieve:
		c.retrieve = Retrieve[M](c.prefix)
	case ActionCreate:
		c.create = Create[M, M](c.prefix)
	case ActionUpdate:
		c.update = Update[M, M](c.prefix)
	case ActionPartialUpdate:
		c.partialUpdate = PartialUpdate[M, M](c.prefix)
	case ActionDelete:
		c.remove = Delete(c.prefix)
	case ActionHead:
		c.head = Head(c.prefix)
	}
}

// Bind associates every declared action with the client. Binding is
// memoized per client. Undeclared actions become error endpoints: calling
// one returns a definition error and performs no I/O.
func (g *group[M, L]) Bind(client *restapi.Client) *BoundGroup[M, L] {
	if client == nil {
		return g.newBound(nil)
	}
	b, _ := g.bound.LoadOrLazyStore(client, func() *BoundGroup[M, L] {
		return g.newBound(client)
	})
	return b
}

func (g *group[M, L]) newBound(client *restapi.Client) *BoundGroup[M, L] {
	return &BoundGroup[M, L]{
		group:         g,
		client:        client,
		list:          bindAction(g, client, ActionList, g.list),
		retrieve:      bindAction(g, client, ActionRetrieve, g.retrieve),
		create:        bindAction(g, client, ActionCreate, g.create),
		update:        bindAction(g, client, ActionUpdate, g.update),
		partialUpdate: bindAction(g, client, ActionPartialUpdate, g.partialUpdate),
		remove:        bindAction(g, client, ActionDelete, g.remove),
		head:          bindAction(g, client, ActionHead, g.head),
	}
}

func bindAction[B, R, M, L any](g *group[M, L], client *restapi.Client, action Action, defn Definition[B, R]) *Endpoint[B, R] {
	if defn == nil {
		return &Endpoint[B, R]{err: errx.Definition.
			WithMsgf("action %q not declared for group /%s", string(action), g.prefix).Err()}
	}
	return defn.Bind(client)
}

// BoundGroup exposes one method per declared action of its group. Embed a
// BoundGroup in a caller-owned struct to add composite operations on top of
// the generated ones.
type BoundGroup[M, L any] struct {
	group  *group[M, L]
	client *restapi.Client

	list          *Endpoint[types.Nil, L]
	retrieve      *Endpoint[types.Nil, M]
	create        *Endpoint[M, M]
	update        *Endpoint[M, M]
	partialUpdate *Endpoint[M, M]
	remove        *Endpoint[types.Nil, types.Nil]
	head          *Endpoint[types.Nil, types.Nil]
}

func (b *BoundGroup[M, L]) Group() Group[M, L] {
	return b.group
}

func (b *BoundGroup[M, L]) Client() *restapi.Client {
	return b.client
}

// List fetches the collection. Args fill prefix placeholders, if any.
func (b *BoundGroup[M, L]) List(ctx context.Context, args ...any) (*L, errx.Error) {
	return b.list.Call(ctx, args...)
}

// Retrieve fetches one item; the trailing argument is its id.
func (b *BoundGroup[M, L]) Retrieve(ctx context.Context, args ...any) (*M, errx.Error) {
	return b.retrieve.Call(ctx, args...)
}

func (b *BoundGroup[M, L]) Create(ctx context.Context, body *M, args ...any) (*M, errx.Error) {
	return b.create.WithBody(body).Call(ctx, args...)
}

func (b *BoundGroup[M, L]) Update(ctx context.Context, body *M, args ...any) (*M, errx.Error) {
	return b.update.WithBody(body).Call(ctx, args...)
}

func (b *BoundGroup[M, L]) PartialUpdate(ctx context.Context, body *M, args ...any) (*M, errx.Error) {
	return b.partialUpdate.WithBody(body).Call(ctx, args...)
}

func (b *BoundGroup[M, L]) Delete(ctx context.Context, args ...any) errx.Error {
	_, err := b.remove.Call(ctx, args...)
	return err
}

// Head probes one item and returns the response headers.
func (b *BoundGroup[M, L]) Head(ctx context.Context, args ...any) (http.Header, errx.Error) {
	res, err := b.head.CallRaw(ctx, args...)
	if err != nil {
		return nil, err
	}
	return res.Header, nil
}

// Pages iterates the list action page by page. The list model must
// implement page.Source[M]; the first fetch reports a definition error when
// it does not.
func (b *BoundGroup[M, L]) Pages(ctx context.Context, args ...any) *page.Pager[M] {
	return page.NewPager(ctx, func(ctx context.Context, cursor string) (page.Source[M], errx.Error) {
		ep := b.list
		if cursor != "" {
			ep = ep.WithQueryValue(page.CursorKey, cursor)
		}
		out, err := ep.Call(ctx, args...)
		if err != nil {
			return nil, err
		}
		src, ok := any(out).(page.Source[M])
		if !ok {
			return nil, errx.Definition.
				WithMsgf("list model %T does not implement page.Source", out).Err()
		}
		return src, nil
	})
}

// Endpoint accessors expose the bound endpoints for per-call decoration,
// e.g. group.ListEndpoint().WithQueryModel(q).Call(ctx).

func (b *BoundGroup[M, L]) ListEndpoint() *Endpoint[types.Nil, L] {
	return b.list
}

func (b *BoundGroup[M, L]) RetrieveEndpoint() *Endpoint[types.Nil, M] {
	return b.retrieve
}

func (b *BoundGroup[M, L]) CreateEndpoint() *Endpoint[M, M] {
	return b.create
}

func (b *BoundGroup[M, L]) UpdateEndpoint() *Endpoint[M, M] {
	return b.update
}

func (b *BoundGroup[M, L]) PartialUpdateEndpoint() *Endpoint[M, M] {
	return b.partialUpdate
}

func (b *BoundGroup[M, L]) DeleteEndpoint() *Endpoint[types.Nil, types.Nil] {
	return b.remove
}

func (b *BoundGroup[M, L]) HeadEndpoint() *Endpoint[types.Nil, types.Nil] {
	return b.head
}
