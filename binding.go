// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package pathmatcher

import (
	"strings"
)

// Binding is a value extracted from a request path or query string, addressed to a field of the
// request message. FieldPath holds the field names from the outermost to the innermost message.
type Binding struct {
	FieldPath []string
	Value     string
}

// Path returns the dot separated field path.
func (b Binding) Path() string {
	return strings.Join(b.FieldPath, ".")
}

// Bindings holds the bindings of a lookup. Path bindings come first, followed by query bindings, each
// in the order they appear in the request. When several bindings target the same field path, the last
// one wins.
type Bindings []Binding

// Get returns the value bound to the dot separated field path. If the field path is bound more than
// once, the last value is returned.
func (b Bindings) Get(fieldPath string) (string, bool) {
	for i := len(b) - 1; i >= 0; i-- {
		if equalFieldPath(b[i].FieldPath, fieldPath) {
			return b[i].Value, true
		}
	}
	return "", false
}

// Has checks whether the dot separated field path is bound.
func (b Bindings) Has(fieldPath string) bool {
	_, ok := b.Get(fieldPath)
	return ok
}

// Clone make a copy of Bindings.
func (b Bindings) Clone() Bindings {
	cloned := make(Bindings, len(b))
	for i := range b {
		cloned[i] = Binding{
			FieldPath: append([]string(nil), b[i].FieldPath...),
			Value:     b[i].Value,
		}
	}
	return cloned
}

// equalFieldPath reports whether fieldPath equals dotPath split on '.', without allocating.
func equalFieldPath(fieldPath []string, dotPath string) bool {
	for i, name := range fieldPath {
		if i > 0 {
			if dotPath == "" || dotPath[0] != dotDelim {
				return false
			}
			dotPath = dotPath[1:]
		}
		if !strings.HasPrefix(dotPath, name) {
			return false
		}
		dotPath = dotPath[len(name):]
	}
	return dotPath == "" && len(fieldPath) > 0
}
