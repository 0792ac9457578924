package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tencent-go/restbind/codec"
	"github.com/tencent-go/restbind/errx"
)

type gizmo struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
	Size  int    `json:"size,omitempty" validate:"omitempty,min=1"`
}

func TestSerialize(t *testing.T) {
	t.Run("valid model", func(t *testing.T) {
		data, err := Serialize(codec.Json(), gizmo{Key: "k1", Value: "v1"})
		require.Nil(t, err)
		assert.JSONEq(t, `{"key":"k1","value":"v1"}`, string(data))
	})

	t.Run("invalid model produces no payload", func(t *testing.T) {
		data, err := Serialize(codec.Json(), gizmo{Key: "k1"})
		require.NotNil(t, err)
		assert.Nil(t, data)
		assert.Equal(t, errx.TypeValidation, err.Type())
		assert.Contains(t, err.Error(), "Value")
		assert.Contains(t, err.Error(), "required")
	})

	t.Run("constraint with parameter is reported", func(t *testing.T) {
		_, err := Serialize(codec.Json(), gizmo{Key: "k", Value: "v", Size: -1})
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "min=1")
	})
}

func TestParse(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		out, err := Parse[gizmo](codec.Json(), []byte(`{"key":"k1","value":"v1"}`))
		require.Nil(t, err)
		assert.Equal(t, &gizmo{Key: "k1", Value: "v1"}, out)
	})

	t.Run("malformed payload is a decode error", func(t *testing.T) {
		_, err := Parse[gizmo](codec.Json(), []byte(`{"key":`))
		require.NotNil(t, err)
		assert.Equal(t, errx.TypeDecode, err.Type())
	})

	t.Run("payload violating the contract is rejected", func(t *testing.T) {
		_, err := Parse[gizmo](codec.Json(), []byte(`{"key":"k1"}`))
		require.NotNil(t, err)
		assert.Equal(t, errx.TypeValidation, err.Type())
	})
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []codec.Serializer{codec.Json(), codec.Msgpack()} {
		in := gizmo{Key: "k2", Value: "v2", Size: 5}
		data, err := Serialize(c, in)
		require.Nil(t, err)
		out, err := Parse[gizmo](c, data)
		require.Nil(t, err)
		assert.Equal(t, &in, out)
	}
}

func TestValidate(t *testing.T) {
	t.Run("non-struct values pass", func(t *testing.T) {
		assert.Nil(t, Validate([]string{"a"}))
		assert.Nil(t, Validate("plain"))
		assert.Nil(t, Validate(42))
	})

	t.Run("nil pointer passes", func(t *testing.T) {
		var g *gizmo
		assert.Nil(t, Validate(g))
	})

	t.Run("pointer to struct is checked", func(t *testing.T) {
		err := Validate(&gizmo{})
		require.NotNil(t, err)
		assert.Equal(t, errx.TypeValidation, err.Type())
	})
}
