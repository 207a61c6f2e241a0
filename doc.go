// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

// Package pathmatcher maps HTTP requests to RPC methods using google.api.http URL templates.
//
// Templates are registered on a [Builder] together with an HTTP method and an opaque method handle.
// Once [Builder.Build] is called, the resulting [PathMatcher] is immutable and safe for concurrent use.
//
//	b, _ := pathmatcher.NewBuilder[string]()
//	_ = b.Register("GET", "/v1/{name=shelves/*/books/*}", "", "GetBook")
//	_ = b.Register("POST", "/v1/{parent=shelves/*}/books", "book", "CreateBook")
//	pm := b.Build()
//
//	m, ok := pm.Lookup("GET", "/v1/shelves/s1/books/b1", "view=FULL")
//	// m.Method == "GetBook"
//	// m.Bindings == [{[name] shelves/s1/books/b1} {[view] FULL}]
//
// A template is a sequence of literal segments, single segment wildcards "*" and a trailing multi
// segment wildcard "**", optionally followed by a custom verb:
//
//	Template = "/" Segments [ Verb ] ;
//	Segments = Segment { "/" Segment } ;
//	Segment  = "*" | "**" | LITERAL | Variable ;
//	Variable = "{" FieldPath [ "=" Segments ] "}" ;
//	FieldPath = IDENT { "." IDENT } ;
//	Verb     = ":" LITERAL ;
//
// During lookup, literal segments take precedence over "*", which takes precedence over "**". For a
// given node, a template registered for the exact HTTP method takes precedence over one registered
// for [MethodWildcard].
package pathmatcher
