package types

import (
	"reflect"

	"github.com/tencent-go/restbind/util"
)

type IEnum interface {
	Enum() Enum
}

type Enum interface {
	Items() []EnumElement
	Contains(val any) bool
}

type EnumElement struct {
	Value any `json:"value"`
}

type supportedTypes interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~string
}

type enumImpl struct {
	items  []EnumElement
	keyMap map[any]*EnumElement
}

func (d *enumImpl) Items() []EnumElement {
	return d.items
}

func (d *enumImpl) Contains(val any) bool {
	_, ok := d.keyMap[val]
	return ok
}

func newEnum[T supportedTypes](values ...T) *enumImpl {
	e := &enumImpl{
		items:  make([]EnumElement, len(values)),
		keyMap: make(map[any]*EnumElement),
	}
	for i, value := range values {
		e.items[i] = EnumElement{Value: value}
		e.keyMap[value] = &e.items[i]
	}
	return e
}

var store util.LazyMap[reflect.Type, *enumImpl]

// RegisterEnum records the legal values for a named type. The registry is
// keyed by the concrete type, so repeated registration returns the first
// stored set.
func RegisterEnum[T supportedTypes](items ...T) Enum {
	if len(items) == 0 {
		panic("enum.Values: no items")
	}
	v, _ := store.LoadOrLazyStore(reflect.TypeOf(items[0]), func() *enumImpl {
		return newEnum(items...)
	})
	return v
}
