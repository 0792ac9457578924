package types

import "reflect"

// Nil marks an absent payload. Endpoints whose request or response side is
// declared as Nil skip serialization entirely for that side.
type Nil struct{}

func (Nil) IsNil() {}

type iNil interface {
	IsNil()
}

var nilInterface = reflect.TypeOf((*iNil)(nil)).Elem()

func IsNilType(t reflect.Type) bool {
	return t.Implements(nilInterface)
}

func IsNilValue[T any](t T) bool {
	_, ok := any(t).(iNil)
	return ok
}
