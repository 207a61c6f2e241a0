package pathmatcher

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	cases := []struct {
		name     string
		template string
		want     *Template
	}{
		{
			name:     "root",
			template: "/",
			want:     &Template{},
		},
		{
			name:     "static segments",
			template: "/shelves/books",
			want: &Template{
				Segments: []string{"shelves", "books"},
			},
		},
		{
			name:     "variables without pattern",
			template: "/shelves/{shelf}/books/{book}",
			want: &Template{
				Segments: []string{"shelves", "*", "books", "*"},
				Variables: []Variable{
					{FieldPath: []string{"shelf"}, StartSegment: 1, EndSegment: 2},
					{FieldPath: []string{"book"}, StartSegment: 3, EndSegment: 4},
				},
			},
		},
		{
			name:     "variable with multi segment pattern",
			template: "/v1/{name=shelves/*/books/*}",
			want: &Template{
				Segments: []string{"v1", "shelves", "*", "books", "*"},
				Variables: []Variable{
					{FieldPath: []string{"name"}, StartSegment: 1, EndSegment: 5},
				},
			},
		},
		{
			name:     "variable ending with multi wildcard",
			template: "/a/{x=**}",
			want: &Template{
				Segments: []string{"a", "**"},
				Variables: []Variable{
					{FieldPath: []string{"x"}, StartSegment: 1, EndSegment: -1, HasWildcardPath: true},
				},
			},
		},
		{
			name:     "variable with literal prefix and multi wildcard",
			template: "/{x=a/**}:verb",
			want: &Template{
				Segments: []string{"a", "**"},
				Verb:     "verb",
				Variables: []Variable{
					{FieldPath: []string{"x"}, StartSegment: 0, EndSegment: -1, HasWildcardPath: true},
				},
			},
		},
		{
			name:     "nested field path",
			template: "/{x.y.z}",
			want: &Template{
				Segments: []string{"*"},
				Variables: []Variable{
					{FieldPath: []string{"x", "y", "z"}, StartSegment: 0, EndSegment: 1},
				},
			},
		},
		{
			name:     "anonymous wildcards",
			template: "/*/b/**",
			want: &Template{
				Segments: []string{"*", "b", "**"},
			},
		},
		{
			name:     "custom verb",
			template: "/a:verb",
			want: &Template{
				Segments: []string{"a"},
				Verb:     "verb",
			},
		},
		{
			name:     "multi wildcard with custom verb",
			template: "/**:batchGet",
			want: &Template{
				Segments: []string{"**"},
				Verb:     "batchGet",
			},
		},
		{
			name:     "literal with dot and dash",
			template: "/v1.0/my-resource_x",
			want: &Template{
				Segments: []string{"v1.0", "my-resource_x"},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTemplate(tc.template)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseTemplateError(t *testing.T) {
	cases := []struct {
		name     string
		template string
	}{
		{name: "empty", template: ""},
		{name: "missing leading slash", template: "a/b"},
		{name: "trailing slash", template: "/a/"},
		{name: "empty segment", template: "/a//b"},
		{name: "segment after multi wildcard", template: "/**/b"},
		{name: "wildcard after multi wildcard", template: "/a/**/*"},
		{name: "segment after multi wildcard variable", template: "/{x=**}/b"},
		{name: "two multi wildcards", template: "/{x=**}/{y=**}"},
		{name: "triple star", template: "/***"},
		{name: "unclosed variable", template: "/{x"},
		{name: "unclosed variable with pattern", template: "/{x=a"},
		{name: "unclosed variable at end", template: "/{"},
		{name: "empty variable", template: "/{}"},
		{name: "missing field name", template: "/{=a}"},
		{name: "empty field path element", template: "/{x.}"},
		{name: "empty variable pattern", template: "/{x=}"},
		{name: "nested variable", template: "/{x={y}}"},
		{name: "verb inside variable", template: "/{x=a:b}"},
		{name: "empty verb", template: "/a:"},
		{name: "double verb", template: "/a:b:c"},
		{name: "brace in literal", template: "/a{b}"},
		{name: "closing brace", template: "/a}"},
		{name: "star in literal", template: "/a*"},
		{name: "question mark", template: "/a?b"},
		{name: "fragment", template: "/a#b"},
		{name: "control character", template: "/a\x00b"},
		{name: "verb without segment", template: "/:verb"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTemplate(tc.template)
			assert.ErrorIs(t, err, ErrInvalidTemplate)
			assert.Nil(t, got)
		})
	}
}

func TestTemplateString(t *testing.T) {
	cases := []struct {
		template string
		want     string
	}{
		{template: "/", want: "/"},
		{template: "/shelves/{shelf}/books/{book}", want: "/shelves/{shelf}/books/{book}"},
		{template: "/a/{x=*}", want: "/a/{x}"},
		{template: "/v1/{name=shelves/*}:get", want: "/v1/{name=shelves/*}:get"},
		{template: "/a/{x=**}", want: "/a/{x=**}"},
		{template: "/{x.y}/*/**:verb", want: "/{x.y}/*/**:verb"},
	}

	for _, tc := range cases {
		t.Run(tc.template, func(t *testing.T) {
			assert.Equal(t, tc.want, MustParseTemplate(tc.template).String())
		})
	}
}

func TestMustParseTemplatePanics(t *testing.T) {
	assert.Panics(t, func() {
		MustParseTemplate("/a/**/b")
	})
}

func TestVariableEnd(t *testing.T) {
	v := Variable{StartSegment: 1, EndSegment: 3}
	assert.Equal(t, 3, v.end(10))

	v = Variable{StartSegment: 1, EndSegment: -1, HasWildcardPath: true}
	assert.Equal(t, 10, v.end(10))
	assert.Equal(t, 1, v.end(1))
}

func TestFuzzParseTemplateNoPanics(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(1000, 2000)

	templates := make(map[string]struct{})
	f.Fuzz(&templates)

	for tmpl := range templates {
		for _, candidate := range []string{tmpl, "/" + tmpl} {
			require.NotPanicsf(t, func() {
				parsed, err := ParseTemplate(candidate)
				if err != nil {
					return
				}
				reparsed, err := ParseTemplate(parsed.String())
				require.NoError(t, err)
				assert.Equal(t, parsed, reparsed)
			}, "template: %q", candidate)
		}
	}
}
