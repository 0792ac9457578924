package page

import (
	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/schema"
	"github.com/tencent-go/restbind/types"
)

type Sortable interface {
	GetSort() string
	GetDirection() Direction
}

// SortOption names the field a listing is ordered by. T is usually a string
// enum of the sortable fields, validated when it implements Validatable.
type SortOption[T ~string] struct {
	Sort      T         `json:"sort,omitempty" query:"sort,omitempty" validate:"omitempty"`
	Direction Direction `json:"direction,omitempty" query:"direction,omitempty" validate:"omitempty"`
}

func (s SortOption[T]) GetSort() string {
	return string(s.Sort)
}

func (s SortOption[T]) GetDirection() Direction {
	return s.Direction
}

func (s SortOption[T]) Validate() errx.Error {
	if s.GetSort() == "" {
		return nil
	}
	if v, ok := any(s.Sort).(schema.Validatable); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if !s.Direction.Enum().Contains(s.Direction) {
		return errx.Validation.WithMsg("sort direction is invalid").Err()
	}
	return nil
}

type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

func (d Direction) Enum() types.Enum {
	return types.RegisterEnum(DirectionAsc, DirectionDesc)
}

// Query is the standard listing query model: cursor position, page size and
// sort order. Endpoints stage it with WithQueryModel; zero fields stay out
// of the encoded query.
type Query[T ~string] struct {
	SortOption[T]
	Cursor string `json:"cursor,omitempty" query:"cursor,omitempty" validate:"omitempty"`
	Limit  int64  `json:"limit,omitempty" query:"limit,omitempty" validate:"omitempty,gte=0"`
}
