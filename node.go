// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package pathmatcher

import (
	"sort"
	"strings"
)

// MethodWildcard registers a template for every http method. An exact method registration at the
// same node takes priority.
const MethodWildcard = "*"

// methodKey identifies a result at a node. The custom verb is part of the key so that
// "/a:verb" and "/a" never collide, whatever the http method name looks like.
type methodKey struct {
	method string
	verb   string
}

// leaf references the registration stored at a node. The node does not own the registration, it
// only holds its index in the matcher registration table.
type leaf struct {
	index     int
	ambiguous bool
}

type node struct {
	// Literal segment transitions.
	children map[string]*node

	// Transition for a single segment wildcard '*'. Nil if none.
	wildcard *node

	// Results of templates ending with a '**' wildcard at this node. A multi wildcard
	// consumes all remaining segments, so this node never has children.
	multiWildcard *node

	// Registered results by http method and custom verb.
	results map[methodKey]*leaf
}

func newNode() *node {
	return new(node)
}

// insertPath records index under key at the node reached by segments, creating nodes as required.
// If the slot is already taken, it is replaced when forceInsert is true. Otherwise, the slot is
// flagged ambiguous when markAmbiguous is true, and insertPath returns false.
func (n *node) insertPath(segments []string, key methodKey, index int, forceInsert, markAmbiguous bool) bool {
	current := n
	for _, seg := range segments {
		switch seg {
		case multiWildcard:
			if current.multiWildcard == nil {
				current.multiWildcard = newNode()
			}
			current = current.multiWildcard
		case singleWildcard:
			if current.wildcard == nil {
				current.wildcard = newNode()
			}
			current = current.wildcard
		default:
			if current.children == nil {
				current.children = make(map[string]*node)
			}
			child, ok := current.children[seg]
			if !ok {
				child = newNode()
				current.children[seg] = child
			}
			current = child
		}
	}

	if current.results == nil {
		current.results = make(map[methodKey]*leaf)
	}

	if existing, ok := current.results[key]; ok {
		if forceInsert {
			current.results[key] = &leaf{index: index}
			return true
		}
		if markAmbiguous {
			existing.ambiguous = true
		}
		return false
	}

	current.results[key] = &leaf{index: index}
	return true
}

// get returns the registration index at the node reached by segments, without any wildcard
// matching. It is used to report conflicts.
func (n *node) get(segments []string, key methodKey) (*leaf, bool) {
	current := n
	for _, seg := range segments {
		switch seg {
		case multiWildcard:
			current = current.multiWildcard
		case singleWildcard:
			current = current.wildcard
		default:
			current = current.children[seg]
		}
		if current == nil {
			return nil, false
		}
	}
	l, ok := current.results[key]
	return l, ok
}

// lookupPath returns the most specific result matching segments for the given key. At every depth, a
// literal match is preferred over a single wildcard match, itself preferred over a multi wildcard
// match. When a preferred branch fails deeper in the trie, the lookup backtracks and tries the next
// one. The recursion depth is bounded by the trie depth, since a multi wildcard consumes all the
// remaining segments without descending.
func (n *node) lookupPath(segments []string, key methodKey) (*leaf, bool) {
	if len(segments) == 0 {
		if l, ok := n.result(key); ok {
			return l, true
		}
		// A multi wildcard also matches zero segment.
		if n.multiWildcard != nil {
			return n.multiWildcard.result(key)
		}
		return nil, false
	}

	if child, ok := n.children[segments[0]]; ok {
		if l, ok := child.lookupPath(segments[1:], key); ok {
			return l, true
		}
	}

	if n.wildcard != nil {
		if l, ok := n.wildcard.lookupPath(segments[1:], key); ok {
			return l, true
		}
	}

	if n.multiWildcard != nil {
		return n.multiWildcard.result(key)
	}

	return nil, false
}

// result returns the result registered at this node for key, falling back to the method wildcard.
func (n *node) result(key methodKey) (*leaf, bool) {
	if l, ok := n.results[key]; ok {
		return l, true
	}
	if key.method != MethodWildcard {
		if l, ok := n.results[methodKey{method: MethodWildcard, verb: key.verb}]; ok {
			return l, true
		}
	}
	return nil, false
}

func (n *node) String() string {
	return n.string("", 0)
}

func (n *node) string(key string, space int) string {
	sb := strings.Builder{}
	sb.WriteString(strings.Repeat(" ", space))
	if space == 0 {
		sb.WriteString("root")
	} else {
		sb.WriteString("path: ")
		sb.WriteString(key)
	}

	if len(n.results) > 0 {
		keys := make([]string, 0, len(n.results))
		for k, l := range n.results {
			s := k.method
			if k.verb != "" {
				s += ":" + k.verb
			}
			if l.ambiguous {
				s += "!"
			}
			keys = append(keys, s)
		}
		sort.Strings(keys)
		sb.WriteString(" [")
		sb.WriteString(strings.Join(keys, ", "))
		sb.WriteString("]")
	}
	sb.WriteByte('\n')

	literals := make([]string, 0, len(n.children))
	for k := range n.children {
		literals = append(literals, k)
	}
	sort.Strings(literals)
	for _, k := range literals {
		sb.WriteString(n.children[k].string(k, space+2))
	}
	if n.wildcard != nil {
		sb.WriteString(n.wildcard.string(singleWildcard, space+2))
	}
	if n.multiWildcard != nil {
		sb.WriteString(n.multiWildcard.string(multiWildcard, space+2))
	}
	return sb.String()
}
