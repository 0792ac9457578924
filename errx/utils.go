package errx

import (
	"context"
	"errors"
	"fmt"
)

// Predeclared builders, one per stage of the binding pipeline.
var (
	Definition         = Define().WithType(TypeDefinition).WithMsg("invalid endpoint definition")
	Argument           = Define().WithType(TypeArgument).WithMsg("invalid call arguments")
	Validation         = Define().WithType(TypeValidation).WithMsg("validation failed")
	RequestValidation  = Define().WithType(TypeRequestValidation).WithMsg("request body validation failed")
	Transport          = Define().WithType(TypeTransport).WithMsg("transport failed")
	Timeout            = Define().WithType(TypeTimeout).WithMsg("request timed out")
	HTTP               = Define().WithType(TypeHTTP).WithMsg("http error status")
	Decode             = Define().WithType(TypeDecode).WithMsg("response payload decode failed")
	ResponseValidation = Define().WithType(TypeResponseValidation).WithMsg("response validation failed")
	Internal           = Define().WithMsg("internal error")
)

func Define() Builder {
	return rootError
}

var rootError = &impl{
	cause: errors.New(""),
	typ:   TypeInternal,
}

type emptyError struct{}

func (e *emptyError) WithMsg(s string) Builder {
	return rootError.WithMsg(s)
}

func (e *emptyError) WithMsgf(format string, a ...any) Builder {
	return rootError.WithMsgf(format, a...)
}

func (e *emptyError) AppendMsg(s string) Builder {
	return rootError.AppendMsg(s)
}

func (e *emptyError) AppendMsgf(format string, a ...any) Builder {
	return rootError.AppendMsgf(format, a...)
}

func (e *emptyError) WithCode(i int) Builder {
	return rootError.WithCode(i)
}

func (e *emptyError) WithType(t Type) Builder {
	return rootError.WithType(t)
}

func (e *emptyError) Err() Error {
	return nil
}

var empty = &emptyError{}

// Wrap lifts an arbitrary error into the taxonomy. Wrapping nil yields a
// builder whose Err is nil, so call sites can wrap unconditionally. Context
// errors are classified: deadline expiry becomes TypeTimeout, cancellation
// TypeTransport.
func Wrap(err error) Builder {
	if err == nil {
		return empty
	}
	if i, ok := err.(*impl); ok {
		return i
	}
	if e, ok := err.(Error); ok {
		return &impl{
			cause: e,
			msg:   e.Error(),
			stack: e.Stack(),
			code:  e.Code(),
			typ:   e.Type(),
		}
	}
	t := TypeInternal
	if errors.Is(err, context.DeadlineExceeded) {
		t = TypeTimeout
	} else if errors.Is(err, context.Canceled) {
		t = TypeTransport
	}
	return &impl{
		cause: err,
		typ:   t,
		msg:   err.Error(),
		stack: parseStack(fmt.Sprintf("%+v", err)),
	}
}

func New(msg string) Error {
	return Define().WithMsg(msg).Err()
}

func Newf(format string, a ...any) Error {
	return Define().WithMsgf(format, a...).Err()
}

// TypeOf reports the taxonomy type of err, TypeInternal for foreign errors
// and the empty string for nil.
func TypeOf(err error) Type {
	if err == nil {
		return ""
	}
	var e Error
	if errors.As(err, &e) {
		return e.Type()
	}
	return TypeInternal
}
