package types

import (
	"fmt"
	"strings"
)

// Path is a normalized URL path segment chain. The zero value is the root.
// Leading and trailing slashes are insignificant: NewPath("/objects/") and
// NewPath("objects") are the same path. String always renders with a single
// leading slash, so paths concatenate cleanly behind a host.
type Path string

func NewPath(v any) Path {
	s := strings.TrimSpace(fmt.Sprint(v))
	return Path(strings.Trim(s, "/"))
}

// Join appends elems to p, normalizing each one. Empty elements disappear.
func (p Path) Join(elems ...any) Path {
	parts := make([]string, 0, len(elems)+1)
	if p != "" {
		parts = append(parts, string(p))
	}
	for _, e := range elems {
		if s := NewPath(e); s != "" {
			parts = append(parts, string(s))
		}
	}
	return Path(strings.Join(parts, "/"))
}

func (p Path) String() string {
	return "/" + string(p)
}

func (p Path) IsRoot() bool {
	return p == ""
}

// Segments splits the path on slashes, dropping empty runs.
func (p Path) Segments() []string {
	if p == "" {
		return nil
	}
	fields := strings.FieldsFunc(string(p), func(r rune) bool {
		return r == '/'
	})
	return fields
}
