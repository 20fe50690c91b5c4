package patch

import (
	"fmt"
	"strings"
)

// PathSet is a set of allowed JSON pointers. Patterns may use "-" or "*"
// for any single segment. An empty set allows everything.
type PathSet map[string]bool

func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = true
	}
	return s
}

// Without returns a copy of s that no longer allows the given paths or
// anything below them.
func (s PathSet) Without(prefixes ...string) PathSet {
	out := make(PathSet, len(s))
	for p := range s {
		blocked := false
		for _, prefix := range prefixes {
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				blocked = true
				break
			}
		}
		if !blocked {
			out[p] = true
		}
	}
	return out
}

func (s PathSet) Allows(path string) bool {
	if len(s) == 0 || s[path] {
		return true
	}
	return matchWildcard(strings.Split(path, "/"), 1, s, false)
}

func (s PathSet) List() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	return out
}

func ValidatePatchOperations(ops []Operation, allowed PathSet) error {
	for i, op := range ops {
		switch op.Op {
		case OperationAdd, OperationRemove, OperationReplace:
		default:
			return fmt.Errorf("operation %d: unsupported op %q", i, op.Op)
		}
		if !allowed.Allows(op.Path) {
			return fmt.Errorf("operation %d: path %q is not in the allowed paths set", i, op.Path)
		}
	}
	return nil
}

func matchWildcard(segments []string, index int, allowed PathSet, hasWildcard bool) bool {
	if index >= len(segments) {
		return hasWildcard && allowed[strings.Join(segments, "/")]
	}

	original := segments[index]
	defer func() { segments[index] = original }()

	for _, wildcard := range []string{"-", "*"} {
		segments[index] = wildcard
		if matchWildcard(segments, index+1, allowed, true) {
			return true
		}
	}
	segments[index] = original
	return matchWildcard(segments, index+1, allowed, hasWildcard)
}
