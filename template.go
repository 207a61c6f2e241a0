// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package pathmatcher

import (
	"fmt"
	"strings"
)

const (
	slashDelim   byte = '/'
	colonDelim   byte = ':'
	dotDelim     byte = '.'
	equalDelim   byte = '='
	bracketDelim byte = '{'
	closeDelim   byte = '}'
	starDelim    byte = '*'
)

const (
	// singleWildcard is the segment matching exactly one path segment.
	singleWildcard = "*"
	// multiWildcard is the segment matching all the remaining path segments.
	multiWildcard = "**"
)

// Variable binds a range of template segments to a field path. The range is [StartSegment, EndSegment).
// A negative EndSegment is counted from the end of the matched path, so that a variable ending with a
// '**' wildcard captures a varying number of segments.
type Variable struct {
	FieldPath       []string
	StartSegment    int
	EndSegment      int
	HasWildcardPath bool
}

// end returns the absolute end of the variable range for a path of n segments.
func (v Variable) end(n int) int {
	if v.EndSegment >= 0 {
		return v.EndSegment
	}
	return n + v.EndSegment + 1
}

// Template is the parsed form of an http template such as "/v1/{name=shelves/*}/books:publish".
// A Template is immutable once returned by [ParseTemplate].
type Template struct {
	// Segments holds literal segments and the "*" and "**" wildcard markers. Variables are
	// expanded into the segments of their pattern.
	Segments  []string
	Verb      string
	Variables []Variable
}

// ParseTemplate parses and validates an http template. The template grammar is:
//
//	Template  = "/" | "/" Segments [ ":" Verb ]
//	Segments  = Segment { "/" Segment }
//	Segment   = "*" | "**" | LITERAL | Variable
//	Variable  = "{" FieldPath [ "=" Segments ] "}"
//	FieldPath = IDENT { "." IDENT }
//
// A variable without pattern matches a single segment, like "{name=*}". The "**" wildcard matches
// any number of remaining segments, and must therefore be the last segment of the template.
// Nested variables are not allowed. On failure, the returned error Is [ErrInvalidTemplate].
func ParseTemplate(tmpl string) (*Template, error) {
	if tmpl == "/" {
		return &Template{}, nil
	}

	p := parser{input: tmpl}
	if err := p.parse(); err != nil {
		return nil, err
	}

	return &Template{
		Segments:  p.segments,
		Verb:      p.verb,
		Variables: p.variables,
	}, nil
}

// MustParseTemplate is like [ParseTemplate] but panics on error.
func MustParseTemplate(tmpl string) *Template {
	t, err := ParseTemplate(tmpl)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the canonical form of the template. Variables matching exactly one
// single wildcard segment are rendered as "{name}".
func (t *Template) String() string {
	var sb strings.Builder
	if len(t.Segments) == 0 {
		sb.WriteByte(slashDelim)
	}

	starts := make(map[int]Variable, len(t.Variables))
	for _, v := range t.Variables {
		starts[v.StartSegment] = v
	}

	for i := 0; i < len(t.Segments); {
		sb.WriteByte(slashDelim)
		v, ok := starts[i]
		if !ok {
			sb.WriteString(t.Segments[i])
			i++
			continue
		}

		end := v.end(len(t.Segments))
		sb.WriteByte(bracketDelim)
		sb.WriteString(strings.Join(v.FieldPath, "."))
		if end-i != 1 || t.Segments[i] != singleWildcard {
			sb.WriteByte(equalDelim)
			sb.WriteString(strings.Join(t.Segments[i:end], "/"))
		}
		sb.WriteByte(closeDelim)
		i = end
	}

	if t.Verb != "" {
		sb.WriteByte(colonDelim)
		sb.WriteString(t.Verb)
	}
	return sb.String()
}

type parser struct {
	input      string
	segments   []string
	variables  []Variable
	verb       string
	pos        int
	inVariable bool
}

func (p *parser) parse() error {
	if !p.consume(slashDelim) {
		return fmt.Errorf("%w: template must start with '/'", ErrInvalidTemplate)
	}

	if err := p.parseSegments(); err != nil {
		return err
	}

	if p.consume(colonDelim) {
		verb, err := p.parseLiteral()
		if err != nil {
			return err
		}
		p.verb = verb
	}

	if !p.eof() {
		return fmt.Errorf("%w: unexpected character '%s' at offset %d", ErrInvalidTemplate, string(p.current()), p.pos)
	}

	for i, seg := range p.segments {
		if seg == multiWildcard && i != len(p.segments)-1 {
			return fmt.Errorf("%w: '**' must be the last segment", ErrInvalidTemplate)
		}
	}

	return nil
}

func (p *parser) parseSegments() error {
	for {
		if err := p.parseSegment(); err != nil {
			return err
		}
		if !p.consume(slashDelim) {
			return nil
		}
	}
}

func (p *parser) parseSegment() error {
	if p.eof() {
		return fmt.Errorf("%w: missing segment at end of template", ErrInvalidTemplate)
	}

	switch p.current() {
	case starDelim:
		p.pos++
		if p.consume(starDelim) {
			p.segments = append(p.segments, multiWildcard)
			return nil
		}
		p.segments = append(p.segments, singleWildcard)
		return nil
	case bracketDelim:
		return p.parseVariable()
	default:
		lit, err := p.parseLiteral()
		if err != nil {
			return err
		}
		p.segments = append(p.segments, lit)
		return nil
	}
}

func (p *parser) parseVariable() error {
	if p.inVariable {
		return fmt.Errorf("%w: nested variable at offset %d", ErrInvalidTemplate, p.pos)
	}
	p.pos++

	fieldPath, err := p.parseFieldPath()
	if err != nil {
		return err
	}

	start := len(p.segments)
	p.inVariable = true
	if p.consume(equalDelim) {
		if err := p.parseSegments(); err != nil {
			return err
		}
	} else {
		p.segments = append(p.segments, singleWildcard)
	}
	p.inVariable = false

	if !p.consume(closeDelim) {
		return fmt.Errorf("%w: unclosed variable '{%s'", ErrInvalidTemplate, strings.Join(fieldPath, "."))
	}

	v := Variable{
		FieldPath:    fieldPath,
		StartSegment: start,
		EndSegment:   len(p.segments),
	}
	if p.segments[len(p.segments)-1] == multiWildcard {
		v.HasWildcardPath = true
		v.EndSegment = -1
	}
	p.variables = append(p.variables, v)
	return nil
}

func (p *parser) parseFieldPath() ([]string, error) {
	var fieldPath []string
	for {
		start := p.pos
		for !p.eof() && isIdentChar(p.current()) {
			p.pos++
		}
		if start == p.pos {
			if p.eof() {
				return nil, fmt.Errorf("%w: unclosed variable at end of template", ErrInvalidTemplate)
			}
			return nil, fmt.Errorf("%w: missing field name at offset %d", ErrInvalidTemplate, p.pos)
		}
		fieldPath = append(fieldPath, p.input[start:p.pos])
		if !p.consume(dotDelim) {
			return fieldPath, nil
		}
	}
}

func (p *parser) parseLiteral() (string, error) {
	start := p.pos
	for !p.eof() {
		c := p.current()
		if c < ' ' || c == 0x7f {
			return "", fmt.Errorf("%w: illegal control character at offset %d", ErrInvalidTemplate, p.pos)
		}
		if c == '?' || c == '#' {
			return "", fmt.Errorf("%w: illegal character '%s' at offset %d", ErrInvalidTemplate, string(c), p.pos)
		}
		if !isLiteralChar(c) {
			break
		}
		p.pos++
	}
	if start == p.pos {
		if p.eof() {
			return "", fmt.Errorf("%w: missing segment at end of template", ErrInvalidTemplate)
		}
		return "", fmt.Errorf("%w: unexpected character '%s' at offset %d", ErrInvalidTemplate, string(p.current()), p.pos)
	}
	return p.input[start:p.pos], nil
}

func (p *parser) consume(c byte) bool {
	if !p.eof() && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) current() byte {
	return p.input[p.pos]
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func isLiteralChar(c byte) bool {
	switch c {
	case slashDelim, colonDelim, equalDelim, bracketDelim, closeDelim, starDelim:
		return false
	}
	return true
}

func isIdentChar(c byte) bool {
	return c != dotDelim && c > ' ' && c != 0x7f && c != '?' && c != '#' && isLiteralChar(c)
}
