package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPattern is returned by ParsePattern for anything that is not a
// literal, "*" or "prefix:*".
var ErrInvalidPattern = errors.New("rbac: invalid permission pattern")

type patternKind uint8

const (
	patternLiteral patternKind = iota + 1
	patternAny
	patternPrefix
)

// Pattern is a parsed permission rule. The zero value matches nothing.
type Pattern struct {
	kind patternKind
	// literal value for patternLiteral, prefix including the trailing ':'
	// for patternPrefix.
	value string
	raw   string
}

// ParsePattern parses one of:
//
//	"*"            every permission
//	"plans:*"      every permission starting with "plans:"
//	"users:view"   exactly that permission
func ParsePattern(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return Pattern{}, fmt.Errorf("%w: empty", ErrInvalidPattern)
	case s == "*":
		return Pattern{kind: patternAny, raw: s}, nil
	case strings.HasSuffix(s, ":*"):
		prefix := strings.TrimSuffix(s, "*")
		if len(prefix) < 2 || strings.Contains(prefix, "*") {
			return Pattern{}, fmt.Errorf("%w: %q", ErrInvalidPattern, s)
		}
		return Pattern{kind: patternPrefix, value: prefix, raw: s}, nil
	case strings.Contains(s, "*"):
		return Pattern{}, fmt.Errorf("%w: %q", ErrInvalidPattern, s)
	default:
		return Pattern{kind: patternLiteral, value: s, raw: s}, nil
	}
}

// MustParsePattern is ParsePattern for compiled-in tables.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Matches reports whether the pattern grants the requested permission.
func (p Pattern) Matches(requested string) bool {
	switch p.kind {
	case patternAny:
		return true
	case patternPrefix:
		return strings.HasPrefix(requested, p.value)
	case patternLiteral:
		return p.value == requested
	default:
		return false
	}
}

func (p Pattern) String() string { return p.raw }

// Matches is the string form of Pattern.Matches. A malformed pattern never
// grants anything.
func Matches(pattern, requested string) bool {
	p, err := ParsePattern(pattern)
	if err != nil {
		return false
	}
	return p.Matches(requested)
}
