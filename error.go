// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package pathmatcher

import (
	"errors"
	"strings"
)

var (
	ErrInvalidTemplate = errors.New("invalid template")
	ErrRouteExist      = errors.New("route already registered")
	ErrRouteIgnored    = errors.New("route ignored")
	ErrInvalidConfig   = errors.New("invalid config")
	ErrBuilderSealed   = errors.New("builder already built")
	ErrInvalidMethod   = errors.New("invalid http method")
)

// RouteConflictError represents a conflict that occurred during registration: the new route
// resolves to the same trie path, http method and custom verb as an existing one.
type RouteConflictError struct {
	// Method is the http method of the new registration.
	Method string
	// New is the template that was being registered when the conflict was detected.
	New string
	// Existing is the previously registered template that conflicts with New.
	Existing string
}

func (e *RouteConflictError) Error() string {
	var sb strings.Builder
	sb.WriteString("route already registered: new route [")
	sb.WriteString(e.Method)
	sb.WriteString("] ")
	sb.WriteString(e.New)
	sb.WriteString(" conflicts with ")
	sb.WriteString(e.Existing)
	return sb.String()
}

// Unwrap returns the sentinel value [ErrRouteExist].
func (e *RouteConflictError) Unwrap() error {
	return ErrRouteExist
}
