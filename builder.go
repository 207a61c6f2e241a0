// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package pathmatcher

import (
	"errors"
	"fmt"
)

// Builder registers http templates and builds an immutable [PathMatcher]. The type parameter T is the
// method handle returned on lookup, opaque to the matcher. A Builder is not safe for concurrent use.
type Builder[T any] struct {
	root        *node
	customVerbs map[string]struct{}
	data        []*methodData[T]
	built       *PathMatcher[T]
	cfg         config
}

// methodData holds everything a lookup needs about a registration.
type methodData[T any] struct {
	method            T
	systemQueryParams map[string]struct{}
	httpMethod        string
	template          string
	bodyFieldPath     string
	variables         []Variable
	replaced          bool
	ambiguous         bool
}

// reachable reports whether a lookup can return this registration.
func (d *methodData[T]) reachable() bool {
	return !d.replaced && !d.ambiguous
}

type registration struct {
	systemQueryParams map[string]struct{}
}

// NewBuilder returns a ready to use [Builder]. It returns an error that Is [ErrInvalidConfig]
// if an option is invalid.
func NewBuilder[T any](opts ...Option) (*Builder[T], error) {
	b := &Builder[T]{
		root:        newNode(),
		customVerbs: make(map[string]struct{}),
		cfg:         defaultConfig(),
	}

	for _, opt := range opts {
		if err := opt.applyBuilder(&b.cfg); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// MustRegister registers a new template and panics on error. This function is a convenience wrapper
// for the [Builder.Register] function.
func (b *Builder[T]) MustRegister(httpMethod, template, bodyFieldPath string, method T, opts ...RegisterOption) {
	if err := b.Register(httpMethod, template, bodyFieldPath, method, opts...); err != nil {
		panic(err)
	}
}

// Register registers method for the given http method and template. The bodyFieldPath is returned as
// is on lookup, and designates the request field receiving the http body ("*" for the whole message,
// empty for none). Use [MethodWildcard] as http method to match any method.
//
// Register returns an error that Is [ErrInvalidTemplate] if the template is malformed, and an error
// that Is [ErrBuilderSealed] if [Builder.Build] has already been called. When the template resolves
// to the same path, http method and custom verb as a previous registration, the conflict is resolved
// according to the [DuplicatePolicy], unless [WithFailOnDuplicate] is enabled, in which case Register
// returns a [RouteConflictError] and leaves the builder unchanged. With [KeepFirst] and [MarkAmbiguous],
// the new registration is dropped and Register returns an error that Is both [ErrRouteIgnored] and
// [ErrRouteExist]. With [ReplaceExisting], the new registration takes effect and Register returns nil.
// A failed registration never affects previously registered templates, except for the ambiguity flag
// set by [MarkAmbiguous].
func (b *Builder[T]) Register(httpMethod, template, bodyFieldPath string, method T, opts ...RegisterOption) error {
	if b.built != nil {
		return ErrBuilderSealed
	}

	if httpMethod == "" {
		return fmt.Errorf("%w: empty method", ErrInvalidMethod)
	}

	tmpl, err := ParseTemplate(template)
	if err != nil {
		b.logRejected(httpMethod, template, err)
		return err
	}

	var reg registration
	for _, opt := range opts {
		if err := opt.applyRegister(&reg); err != nil {
			return err
		}
	}

	key := methodKey{method: httpMethod, verb: tmpl.Verb}
	if existing, ok := b.root.get(tmpl.Segments, key); ok {
		conflict := &RouteConflictError{
			Method:   httpMethod,
			New:      template,
			Existing: b.data[existing.index].template,
		}
		if b.cfg.failOnDuplicate {
			b.logRejected(httpMethod, template, conflict)
			return conflict
		}

		switch b.cfg.duplicatePolicy {
		case ReplaceExisting:
			b.data[existing.index].replaced = true
		case MarkAmbiguous:
			b.root.insertPath(tmpl.Segments, key, existing.index, false, true)
			b.data[existing.index].ambiguous = true
			b.logDuplicate(httpMethod, template, conflict)
			return fmt.Errorf("%w: %w", ErrRouteIgnored, conflict)
		default:
			b.logDuplicate(httpMethod, template, conflict)
			return fmt.Errorf("%w: %w", ErrRouteIgnored, conflict)
		}
	}

	index := len(b.data)
	if !b.root.insertPath(tmpl.Segments, key, index, b.cfg.duplicatePolicy == ReplaceExisting, false) {
		// get and insertPath walk the same nodes.
		return errors.New("internal error: registration slot unexpectedly taken")
	}

	b.data = append(b.data, &methodData[T]{
		method:            method,
		systemQueryParams: reg.systemQueryParams,
		httpMethod:        httpMethod,
		template:          template,
		bodyFieldPath:     bodyFieldPath,
		variables:         tmpl.Variables,
	})
	if tmpl.Verb != "" {
		b.customVerbs[tmpl.Verb] = struct{}{}
	}

	b.logRegistered(httpMethod, template, tmpl)
	return nil
}

// Build returns the [PathMatcher] holding every registered template. After Build, the builder is
// sealed: further registrations fail with [ErrBuilderSealed], and subsequent calls to Build return
// the same matcher.
func (b *Builder[T]) Build() *PathMatcher[T] {
	if b.built != nil {
		return b.built
	}

	b.built = &PathMatcher[T]{
		root:                  b.root,
		customVerbs:           b.customVerbs,
		data:                  b.data,
		unescapeSpec:          b.cfg.unescapeSpec,
		queryUnescapePlus:     b.cfg.queryUnescapePlus,
		matchUnregisteredVerb: b.cfg.matchUnregisteredVerb,
	}
	return b.built
}
