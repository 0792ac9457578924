// Package env reads configuration structs from the process environment.
//
// Field mapping follows `env` struct tags: `env:"NAME"` binds a variable,
// `env:"NAME,omitempty"` makes it optional, `env:"-"` skips the field and an
// untagged field binds the upper-snake form of its name. A reader prefix is
// joined with "_", so prefix "GIZMO" turns HOST into GIZMO_HOST. Values are
// converted through the codec string codecs, `default` tags fill unset
// variables and a field without omitempty or a default must be set. Embedded
// structs are flattened into the parent's namespace.
package env

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/tencent-go/restbind/codec"
	"github.com/tencent-go/restbind/errx"
	"github.com/tencent-go/restbind/schema"
	"github.com/tencent-go/restbind/types"
	"github.com/tencent-go/restbind/util"
)

// Reader parses one configuration struct from the environment. Parsing is
// memoized per reader; build a fresh one to observe environment changes.
type Reader[T any] interface {
	// Read returns the parsed struct. Conversion and enum failures come back
	// as validation errors listing every offending variable; a clean parse is
	// then checked through schema.Validate.
	Read() (T, errx.Error)
	// MustRead is Read that dumps the variable report to stderr and panics on
	// failure. Meant for boot-time configuration that cannot be defaulted.
	MustRead() T
	// Report renders the observed variables, one per line, with defaults and
	// issues annotated.
	Report() string
}

type ReaderBuilder[T any] interface {
	WithPrefix(prefix string) ReaderBuilder[T]
	Build() Reader[T]
}

func NewReaderBuilder[T any]() ReaderBuilder[T] {
	return readerBuilder[T]{}
}

type readerBuilder[T any] struct {
	prefix string
}

func (b readerBuilder[T]) WithPrefix(prefix string) ReaderBuilder[T] {
	b.prefix = prefix
	return b
}

func (b readerBuilder[T]) Build() Reader[T] {
	return &reader[T]{prefix: b.prefix}
}

type reader[T any] struct {
	prefix string
	once   sync.Once
	parsed T
	fields []field
	err    errx.Error
}

type field struct {
	key      string
	value    string
	fallback string
	required bool
	issue    string
}

func (r *reader[T]) Read() (T, errx.Error) {
	r.parse()
	return r.parsed, r.err
}

func (r *reader[T]) MustRead() T {
	value, err := r.Read()
	if err != nil {
		fmt.Fprint(os.Stderr, r.Report())
		panic(err)
	}
	return value
}

func (r *reader[T]) Report() string {
	r.parse()
	var b strings.Builder
	var zero T
	fmt.Fprintf(&b, "%T environment:\n", zero)
	for _, f := range r.fields {
		value := f.value
		note := ""
		if value == "" && f.fallback != "" {
			value = f.fallback
			note = " (default)"
		}
		if value == "" && f.required {
			note = " (required)"
		}
		fmt.Fprintf(&b, "  %s=%s%s", f.key, value, note)
		if f.issue != "" {
			fmt.Fprintf(&b, " !! %s", f.issue)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *reader[T]) parse() {
	r.once.Do(func() {
		target := new(T)
		v := reflect.ValueOf(target).Elem()
		if v.Kind() != reflect.Struct {
			r.err = errx.Definition.WithMsgf("env: %T is not a struct", *target).Err()
			return
		}
		r.walk(v)

		var issues []string
		for _, f := range r.fields {
			if f.issue != "" {
				issues = append(issues, fmt.Sprintf("%s: %s", f.key, f.issue))
			}
		}
		if len(issues) > 0 {
			r.err = errx.Validation.WithMsgf("invalid environment: %s", strings.Join(issues, "; ")).Err()
			return
		}
		if err := schema.Validate(*target); err != nil {
			r.err = err
			return
		}
		r.parsed = *target
	})
}

func (r *reader[T]) walk(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		ft := t.Field(i)
		fv := v.Field(i)
		if !ft.IsExported() {
			continue
		}
		tag := ft.Tag.Get("env")
		if tag == "-" {
			continue
		}

		if ft.Anonymous {
			for fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					fv.Set(reflect.New(fv.Type().Elem()))
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				r.walk(fv)
				continue
			}
		}

		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = upperSnake(ft.Name)
		}
		if r.prefix != "" {
			name = r.prefix + "_" + name
		}

		f := field{
			key:      name,
			value:    os.Getenv(name),
			fallback: ft.Tag.Get("default"),
			required: opts != "omitempty",
		}
		f.issue = assign(fv, f)
		r.fields = append(r.fields, f)
	}
}

func assign(fv reflect.Value, f field) string {
	value := f.value
	if value == "" {
		value = f.fallback
	}
	if value == "" {
		if f.required {
			return "required value is empty"
		}
		return ""
	}

	for fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		fv = fv.Elem()
	}

	if fv.Kind() == reflect.Slice {
		parts := strings.Split(value, ",")
		slice := reflect.MakeSlice(fv.Type(), len(parts), len(parts))
		for i, part := range parts {
			if err := codec.StringToValue(strings.TrimSpace(part), slice.Index(i)); err != nil {
				return err.Error()
			}
		}
		fv.Set(slice)
		return ""
	}

	if err := codec.StringToValue(value, fv); err != nil {
		return err.Error()
	}
	return checkEnum(fv)
}

func checkEnum(fv reflect.Value) string {
	if !fv.Type().Implements(enumType) {
		return ""
	}
	enum := fv.Interface().(types.IEnum).Enum()
	if enum.Contains(fv.Interface()) {
		return ""
	}
	allowed := util.SliceConv(enum.Items(), func(item types.EnumElement) string {
		return fmt.Sprintf("%v", item.Value)
	})
	return fmt.Sprintf("%v is not one of [%s]", fv.Interface(), strings.Join(allowed, ", "))
}

var enumType = reflect.TypeOf((*types.IEnum)(nil)).Elem()

// upperSnake derives the variable name for an untagged field: PathPrefix
// becomes PATH_PREFIX.
func upperSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
