package endpoint

import (
	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/types"
)

// Action names one conventional REST operation on a resource. Each action
// fixes the method, the relative URL and the argument shape, so declaring a
// group is just naming the actions the remote API implements.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial-update"
	ActionDelete        Action = "delete"
	ActionHead          Action = "head"
)

func (a Action) Enum() types.Enum {
	return types.RegisterEnum(ActionList, ActionRetrieve, ActionCreate,
		ActionUpdate, ActionPartialUpdate, ActionDelete, ActionHead)
}

func (a Action) Validate() errx.Error {
	if a.Enum().Contains(a) {
		return nil
	}
	return errx.Validation.WithMsgf("invalid action %s", a).Err()
}

// List declares GET {prefix} returning the list model L.
func List[L any](prefix string) Definition[types.Nil, L] {
	return NewEndpoint[types.Nil, L](types.MethodGet, prefix).
		WithName(string(ActionList))
}

// Retrieve declares GET {prefix}/{id} returning the item model M.
func Retrieve[M any](prefix string) Definition[types.Nil, M] {
	return NewEndpoint[types.Nil, M](types.MethodGet, itemTemplate(prefix)).
		WithName(string(ActionRetrieve))
}

// Create declares POST {prefix} sending B and returning R.
func Create[B, R any](prefix string) Definition[B, R] {
	return NewEndpoint[B, R](types.MethodPost, prefix).
		WithName(string(ActionCreate))
}

// Update declares PUT {prefix}/{id} sending B and returning R.
func Update[B, R any](prefix string) Definition[B, R] {
	return NewEndpoint[B, R](types.MethodPut, itemTemplate(prefix)).
		WithName(string(ActionUpdate))
}

// PartialUpdate declares PATCH {prefix}/{id} sending B and returning R.
func PartialUpdate[B, R any](prefix string) Definition[B, R] {
	return NewEndpoint[B, R](types.MethodPatch, itemTemplate(prefix)).
		WithName(string(ActionPartialUpdate))
}

// Delete declares DELETE {prefix}/{id} with no payload either way.
func Delete(prefix string) Definition[types.Nil, types.Nil] {
	return NewEndpoint[types.Nil, types.Nil](types.MethodDelete, itemTemplate(prefix)).
		WithName(string(ActionDelete))
}

// Head declares HEAD {prefix}/{id} with no payload either way.
func Head(prefix string) Definition[types.Nil, types.Nil] {
	return NewEndpoint[types.Nil, types.Nil](types.MethodHead, itemTemplate(prefix)).
		WithName(string(ActionHead))
}

func itemTemplate(prefix string) string {
	return string(types.NewPath(prefix).Join("{id}"))
}
