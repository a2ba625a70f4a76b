package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Params resolves configuration values by dotted path, merging the bot-level
// configuration with per-invocation query or CLI parameters. Invocation
// values always win over configuration values. A Params value is immutable;
// With returns a derived store.
type Params struct {
	base      map[string]any
	overrides map[string]string
}

// NewParams creates a store over the given configuration document.
func NewParams(base map[string]any) *Params {
	return &Params{base: base}
}

// With returns a copy of the store with the given invocation values layered
// on top. Keys are matched verbatim, before any dotted-path descent.
func (p *Params) With(values map[string]string) *Params {
	merged := make(map[string]string, len(p.overrides)+len(values))
	for k, v := range p.overrides {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	return &Params{base: p.base, overrides: merged}
}

// Lookup resolves a dotted path. The boolean reports whether the path was
// present at all, which callers use to tell "absent" from "empty".
func (p *Params) Lookup(path string) (any, bool) {
	if v, ok := p.overrides[path]; ok {
		return v, true
	}

	var current any = p.base
	for _, part := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String resolves a path as a string, with a default for absence.
func (p *Params) String(path, def string) string {
	v, ok := p.Lookup(path)
	if !ok {
		return def
	}
	return asString(v)
}

// LookupString resolves a path as a string, reporting presence.
func (p *Params) LookupString(path string) (string, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return "", false
	}
	return asString(v), true
}

// Int resolves a path as an integer, with a default for absence or
// non-numeric values.
func (p *Params) Int(path string, def int) int {
	v, ok := p.Lookup(path)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return def
}

// Bool resolves a path as a boolean, with a default for absence or
// unparseable values.
func (p *Params) Bool(path string, def bool) bool {
	v, ok := p.Lookup(path)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(b)); err == nil {
			return parsed
		}
	}
	return def
}

// StringSlice resolves a path as a list of strings. Absent or non-list
// values yield nil.
func (p *Params) StringSlice(path string) []string {
	list, _ := p.LookupStringSlice(path)
	return list
}

// LookupStringSlice resolves a path as a list of strings, reporting presence.
// An empty list is present and non-nil, distinct from an absent path.
func (p *Params) LookupStringSlice(path string) ([]string, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, asString(item))
		}
		return out, true
	}
	return nil, false
}

// asString renders a scalar parameter value as a string.
func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
