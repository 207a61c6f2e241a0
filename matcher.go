// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package pathmatcher

import (
	"strings"
)

// PathMatcher maps an http method and a request path to a registered method handle, and extracts the
// variable bindings of the matching template. A PathMatcher is built with a [Builder] and never changes
// afterward, so it is safe to call its methods concurrently.
type PathMatcher[T any] struct {
	root                  *node
	customVerbs           map[string]struct{}
	data                  []*methodData[T]
	unescapeSpec          UnescapeSpec
	queryUnescapePlus     bool
	matchUnregisteredVerb bool
}

// Match is the result of a successful [PathMatcher.Lookup].
type Match[T any] struct {
	// Method is the handle registered with the matching template.
	Method T
	// Bindings holds the path bindings followed by the query bindings. The field paths of path
	// bindings are shared with the matcher and must not be modified, see [Bindings.Clone].
	Bindings Bindings
	// BodyFieldPath is the body field path registered with the matching template.
	BodyFieldPath string
}

// Lookup returns the registration matching httpMethod and path, and the bindings extracted from path
// and queryParams. The path may include a query string, which is ignored: queryParams must be given
// separately, without the leading '?'. Query parameters declared as system parameters for the matching
// registration are not bound. Lookup returns false with a zero Match if no registration matches, or if
// the most specific match is ambiguous.
func (pm *PathMatcher[T]) Lookup(httpMethod, path, queryParams string) (Match[T], bool) {
	segments, verb := splitRequestPath(path, pm.customVerbs, pm.matchUnregisteredVerb)
	data, ok := pm.lookup(httpMethod, segments, verb)
	if !ok {
		return Match[T]{}, false
	}

	bindings := pm.pathBindings(data.variables, segments)
	bindings = pm.appendQueryBindings(bindings, data.systemQueryParams, queryParams)

	return Match[T]{
		Method:        data.method,
		Bindings:      bindings,
		BodyFieldPath: data.bodyFieldPath,
	}, true
}

// Find is like [PathMatcher.Lookup] but only returns the method handle, without extracting bindings.
func (pm *PathMatcher[T]) Find(httpMethod, path string) (T, bool) {
	segments, verb := splitRequestPath(path, pm.customVerbs, pm.matchUnregisteredVerb)
	data, ok := pm.lookup(httpMethod, segments, verb)
	if !ok {
		var zero T
		return zero, false
	}
	return data.method, true
}

// Len returns the number of registrations reachable by a lookup. Registrations superseded with
// [ReplaceExisting] or made ambiguous with [MarkAmbiguous] are not counted.
func (pm *PathMatcher[T]) Len() int {
	n := 0
	for _, data := range pm.data {
		if data.reachable() {
			n++
		}
	}
	return n
}

func (pm *PathMatcher[T]) lookup(httpMethod string, segments []string, verb string) (*methodData[T], bool) {
	l, ok := pm.root.lookupPath(segments, methodKey{method: httpMethod, verb: verb})
	if !ok || l.ambiguous {
		return nil, false
	}
	return pm.data[l.index], true
}

// pathBindings joins the request segments covered by each variable. A variable covering a single
// segment is fully decoded, while a multi segment variable is decoded according to the configured
// unescape spec, so that an encoded reserved character such as %2F is not confused with a separator.
func (pm *PathMatcher[T]) pathBindings(variables []Variable, segments []string) Bindings {
	if len(variables) == 0 {
		return nil
	}

	bindings := make(Bindings, 0, len(variables))
	for _, v := range variables {
		end := v.end(len(segments))
		spec := UnescapeAll
		if end-v.StartSegment > 1 || v.EndSegment < 0 {
			spec = pm.unescapeSpec
		}

		var value string
		if end-v.StartSegment == 1 {
			value = UnescapeString(segments[v.StartSegment], spec, false)
		} else if end > v.StartSegment {
			var sb strings.Builder
			for i := v.StartSegment; i < end; i++ {
				if i > v.StartSegment {
					sb.WriteByte(slashDelim)
				}
				sb.WriteString(UnescapeString(segments[i], spec, false))
			}
			value = sb.String()
		}

		bindings = append(bindings, Binding{FieldPath: v.FieldPath, Value: value})
	}
	return bindings
}

// appendQueryBindings appends a binding for each "name=value" pair of query, skipping pairs without
// '=' or without name, and system parameters. The name is split on '.' to form the field path.
func (pm *PathMatcher[T]) appendQueryBindings(bindings Bindings, systemParams map[string]struct{}, query string) Bindings {
	for query != "" {
		var param string
		param, query, _ = strings.Cut(query, "&")

		name, value, ok := strings.Cut(param, "=")
		if !ok || name == "" {
			continue
		}
		if _, ok := systemParams[name]; ok {
			continue
		}

		bindings = append(bindings, Binding{
			FieldPath: strings.Split(name, "."),
			Value:     UnescapeString(value, UnescapeAll, pm.queryUnescapePlus),
		})
	}
	return bindings
}
