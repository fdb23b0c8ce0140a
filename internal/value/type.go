package value

import (
	"errors"
	"fmt"
	"strings"
)

// AsyncPrefix qualifies a base type name to mark an asynchronous source.
const AsyncPrefix = "async_"

// ErrUnknownType is returned when a declared type name is not one of the
// four base types, with or without the async qualifier.
var ErrUnknownType = errors.New("unknown type")

// Type is a declared port type.
type Type struct {
	Kind  Kind
	Async bool
}

// ParseType parses names such as "int", "double" or "async_float".
func ParseType(name string) (Type, error) {
	t := Type{}
	base := name
	if strings.HasPrefix(base, AsyncPrefix) {
		t.Async = true
		base = strings.TrimPrefix(base, AsyncPrefix)
	}
	switch base {
	case "int":
		t.Kind = Int
	case "float":
		t.Kind = Float
	case "double":
		t.Kind = Double
	case "string":
		t.Kind = String
	default:
		return Type{}, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}

// MustParseType is ParseType for literals known to be valid.
func MustParseType(name string) Type {
	t, err := ParseType(name)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Type) String() string {
	if t.Async {
		return AsyncPrefix + t.Kind.String()
	}
	return t.Kind.String()
}

// SameBase reports whether both types share a base kind, ignoring the async
// qualifier.
func (t Type) SameBase(o Type) bool {
	return t.Kind == o.Kind
}

// Compatible reports whether a connection between ports of these types is
// allowed: the same base, or both numeric.
func (t Type) Compatible(o Type) bool {
	return t.Kind == o.Kind || (t.Kind.Numeric() && o.Kind.Numeric())
}
