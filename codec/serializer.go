package codec

import (
	"bytes"
	"net/url"
	"sync"

	"github.com/gorilla/schema"
	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/types"
)

// Serializer converts request and response payloads to and from their wire
// form. Each serializer announces the content type it produces so the client
// can stamp Content-Type and Accept headers without callers repeating it.
type Serializer interface {
	Unmarshal(data []byte, dst any) errx.Error
	Marshal(src any) ([]byte, errx.Error)
	ContentType() types.ContentType
}

func Json() Serializer {
	return json
}

var json = &jsonSerializer{jsoniter.Config{
	SortMapKeys: true,
}.Froze()}

type jsonSerializer struct {
	jsoniter.API
}

func (j *jsonSerializer) Unmarshal(data []byte, dst any) errx.Error {
	err := j.API.Unmarshal(data, dst)
	if err != nil {
		return errx.Wrap(err).WithType(errx.TypeDecode).AppendMsg("Failed to unmarshal JSON data").Err()
	}
	return nil
}

func (j *jsonSerializer) Marshal(src any) ([]byte, errx.Error) {
	data, err := j.API.Marshal(src)
	if err != nil {
		return nil, errx.Wrap(err).WithMsg("Failed to marshal JSON data").Err()
	}
	return data, nil
}

func (j *jsonSerializer) ContentType() types.ContentType {
	return types.ContentTypeApplicationJson
}

type FormSerializer interface {
	Serializer
	Bind(src map[string][]string, dst any) errx.Error
	Extract(src any, dst map[string][]string) errx.Error
}

type formSerializer struct {
	*schema.Decoder
	*schema.Encoder
}

func (v *formSerializer) Unmarshal(data []byte, dst any) errx.Error {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return errx.Wrap(err).WithType(errx.TypeDecode).AppendMsg("Failed to parse form data").Err()
	}

	err = v.Decode(dst, values)
	if err != nil {
		return errx.Wrap(err).WithType(errx.TypeDecode).AppendMsg("Failed to decode form data").Err()
	}

	return nil
}

func (v *formSerializer) Marshal(src any) ([]byte, errx.Error) {
	values := make(map[string][]string)
	err := v.Encode(src, values)
	if err != nil {
		return nil, errx.Wrap(err).AppendMsg("Failed to encode form data").Err()
	}

	params := url.Values{}
	for key, vals := range values {
		for _, val := range vals {
			params.Add(key, val)
		}
	}

	return []byte(params.Encode()), nil
}

func (v *formSerializer) ContentType() types.ContentType {
	return types.ContentTypeApplicationFormUrlencoded
}

func (v *formSerializer) Bind(src map[string][]string, dst any) errx.Error {
	err := v.Decode(dst, src)
	if err != nil {
		return errx.Wrap(err).WithType(errx.TypeDecode).AppendMsg("Failed to bind form data").Err()
	}

	return nil
}

func (v *formSerializer) Extract(src any, dst map[string][]string) errx.Error {
	err := v.Encode(src, dst)
	if err != nil {
		return errx.Wrap(err).AppendMsg("Failed to extract form data").Err()
	}

	return nil
}

var formSerializerInstance = sync.OnceValue(func() *formSerializer {
	d := schema.NewDecoder()
	d.SetAliasTag("form")
	d.IgnoreUnknownKeys(true)
	e := schema.NewEncoder()
	e.SetAliasTag("form")
	return &formSerializer{d, e}
})

func Form() FormSerializer {
	return formSerializerInstance()
}

var querySerializerInstance = sync.OnceValue(func() *formSerializer {
	d := schema.NewDecoder()
	d.SetAliasTag("query")
	d.IgnoreUnknownKeys(true)
	e := schema.NewEncoder()
	e.SetAliasTag("query")
	return &formSerializer{d, e}
})

// Query is the form serializer keyed on `query` struct tags. Endpoints use it
// to turn typed query models into URL parameter sets.
func Query() FormSerializer {
	return querySerializerInstance()
}

type msgpackSerializer struct{}

func (v *msgpackSerializer) Unmarshal(data []byte, dst any) errx.Error {
	reader := bytes.NewReader(data)
	decoder := msgpack.NewDecoder(reader)
	decoder.SetCustomStructTag("json")
	err := decoder.Decode(dst)
	if err != nil {
		return errx.Wrap(err).WithType(errx.TypeDecode).AppendMsg("Failed to unmarshal msgpack data").Err()
	}
	return nil
}

func (v *msgpackSerializer) Marshal(src any) ([]byte, errx.Error) {
	var buf bytes.Buffer
	encoder := msgpack.NewEncoder(&buf)
	encoder.SetCustomStructTag("json")
	err := encoder.Encode(src)
	if err != nil {
		return nil, errx.Wrap(err).AppendMsg("Failed to marshal msgpack data").Err()
	}
	return buf.Bytes(), nil
}

func (v *msgpackSerializer) ContentType() types.ContentType {
	return types.ContentTypeApplicationMsgpack
}

func Msgpack() Serializer {
	return &msgpackSerializer{}
}

// ForContentType returns the serializer registered for ct.
func ForContentType(ct types.ContentType) (Serializer, bool) {
	switch ct {
	case types.ContentTypeApplicationJson:
		return Json(), true
	case types.ContentTypeApplicationMsgpack:
		return Msgpack(), true
	case types.ContentTypeApplicationFormUrlencoded:
		return Form(), true
	}
	return nil, false
}
