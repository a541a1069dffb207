package rbac

import (
	"fmt"
	"sort"
	"strings"
)

const wildcardAction = "*"

// Key is a parsed permission key: resource.action or resource.*.
type Key struct {
	Resource string
	Action   string
	Wildcard bool
}

func ParseKey(raw string) (Key, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 2 {
		return Key{}, fmt.Errorf("permission key %q must have the form resource.action", raw)
	}
	resource, action := parts[0], parts[1]
	if !validSegment(resource) {
		return Key{}, fmt.Errorf("permission key %q has an invalid resource", raw)
	}
	if action == wildcardAction {
		return Key{Resource: resource, Wildcard: true}, nil
	}
	if !validSegment(action) {
		return Key{}, fmt.Errorf("permission key %q has an invalid action", raw)
	}
	return Key{Resource: resource, Action: action}, nil
}

func MustParseKey(raw string) Key {
	k, err := ParseKey(raw)
	if err != nil {
		panic(err)
	}
	return k
}

func validSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	if k.Wildcard {
		return k.Resource + "." + wildcardAction
	}
	return k.Resource + "." + k.Action
}

// Grants reports whether holding k satisfies the concrete key required.
func (k Key) Grants(required Key) bool {
	if required.Wildcard || k.Resource != required.Resource {
		return false
	}
	return k.Wildcard || k.Action == required.Action
}

type PermissionSet struct {
	keys map[Key]struct{}
}

func NewPermissionSet(keys ...Key) PermissionSet {
	s := PermissionSet{keys: make(map[Key]struct{}, len(keys))}
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
	return s
}

func (s PermissionSet) Add(k Key) {
	s.keys[k] = struct{}{}
}

func (s PermissionSet) Len() int {
	return len(s.keys)
}

func (s PermissionSet) Allows(required Key) bool {
	if required.Wildcard {
		return false
	}
	if _, ok := s.keys[required]; ok {
		return true
	}
	_, ok := s.keys[Key{Resource: required.Resource, Wildcard: true}]
	return ok
}

func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k.String())
	}
	sort.Strings(out)
	return out
}
