// Package httprule loads http rules written in the google.api.Service configuration layout and registers
// them into a [pathmatcher.Builder].
//
//	http:
//	  rules:
//	  - selector: library.v1.Library.GetBook
//	    get: /v1/{name=shelves/*/books/*}
//	    additional_bindings:
//	    - get: /v1/books/{name=**}
//	system_parameters:
//	  rules:
//	  - selector: "*"
//	    parameters:
//	    - name: api_key
//	      url_query_parameter: api_key
package httprule

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	pathmatcher "github.com/istio/proxy-sub034"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidRule     = errors.New("invalid rule")
	ErrUnknownSelector = errors.New("unknown selector")
)

// Config is the subset of a service configuration describing http transcoding.
type Config struct {
	HTTP             HTTP             `yaml:"http"`
	SystemParameters SystemParameters `yaml:"system_parameters"`
}

// HTTP holds the http rules of a service.
type HTTP struct {
	Rules []Rule `yaml:"rules" validate:"dive"`
	// FullyDecodeReservedExpansion requests multi segment variables to be fully percent-decoded,
	// reserved characters included.
	FullyDecodeReservedExpansion bool `yaml:"fully_decode_reserved_expansion"`
}

// Rule maps an rpc method to an http method and template. Exactly one of Get, Put, Post, Delete,
// Patch and Custom must be set.
type Rule struct {
	Selector           string         `yaml:"selector"`
	Get                string         `yaml:"get,omitempty"`
	Put                string         `yaml:"put,omitempty"`
	Post               string         `yaml:"post,omitempty"`
	Delete             string         `yaml:"delete,omitempty"`
	Patch              string         `yaml:"patch,omitempty"`
	Custom             *CustomPattern `yaml:"custom,omitempty"`
	Body               string         `yaml:"body,omitempty"`
	ResponseBody       string         `yaml:"response_body,omitempty"`
	AdditionalBindings []Rule         `yaml:"additional_bindings,omitempty" validate:"dive"`
}

// CustomPattern is an http method not covered by the Rule fields, such as HEAD or "*" for any method.
type CustomPattern struct {
	Kind string `yaml:"kind" validate:"required"`
	Path string `yaml:"path" validate:"required"`
}

// SystemParameters declares parameters reserved for transport concerns.
type SystemParameters struct {
	Rules []SystemParameterRule `yaml:"rules" validate:"dive"`
}

// SystemParameterRule applies system parameters to the methods matching Selector. The selector is
// either "*", a fully qualified method name, or a prefix followed by ".*".
type SystemParameterRule struct {
	Selector   string            `yaml:"selector" validate:"required"`
	Parameters []SystemParameter `yaml:"parameters" validate:"dive"`
}

// SystemParameter is a system parameter that may be given as an http header or a query parameter.
type SystemParameter struct {
	Name              string `yaml:"name" validate:"required"`
	HTTPHeader        string `yaml:"http_header,omitempty"`
	URLQueryParameter string `yaml:"url_query_parameter,omitempty"`
}

// Pattern returns the http method and template of the rule.
func (r Rule) Pattern() (method, template string) {
	switch {
	case r.Get != "":
		return http.MethodGet, r.Get
	case r.Put != "":
		return http.MethodPut, r.Put
	case r.Post != "":
		return http.MethodPost, r.Post
	case r.Delete != "":
		return http.MethodDelete, r.Delete
	case r.Patch != "":
		return http.MethodPatch, r.Patch
	case r.Custom != nil:
		return r.Custom.Kind, r.Custom.Path
	default:
		return "", ""
	}
}

func (r Rule) patternCount() int {
	n := 0
	for _, p := range []string{r.Get, r.Put, r.Post, r.Delete, r.Patch} {
		if p != "" {
			n++
		}
	}
	if r.Custom != nil {
		n++
	}
	return n
}

// SystemQueryParams returns the query parameter names declared as system parameters for selector.
func (c *Config) SystemQueryParams(selector string) []string {
	var names []string
	for _, rule := range c.SystemParameters.Rules {
		if !matchSelector(rule.Selector, selector) {
			continue
		}
		for _, param := range rule.Parameters {
			if param.URLQueryParameter != "" {
				names = append(names, param.URLQueryParameter)
			}
		}
	}
	return names
}

// BuilderOptions returns the builder options required by the configuration.
func (c *Config) BuilderOptions() []pathmatcher.Option {
	if c.HTTP.FullyDecodeReservedExpansion {
		return []pathmatcher.Option{pathmatcher.WithUnescapeSpec(pathmatcher.UnescapeAll)}
	}
	return nil
}

func matchSelector(pattern, selector string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(selector, prefix+".")
	}
	return pattern == selector
}

// Load decodes and validates a configuration. Unrelated service configuration fields are ignored.
// The returned error Is [ErrInvalidRule] if the configuration does not validate.
func Load(r io.Reader) (*Config, error) {
	cfg := new(Config)
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty configuration", ErrInvalidRule)
		}
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile is like [Load] but reads the configuration from the named file.
func LoadFile(name string) (*Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Validate checks that every rule declares exactly one pattern, that top level rules have a selector,
// and that additional bindings neither have a selector nor nest further.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateRule, Rule{})
	v.RegisterStructValidation(validateHTTP, HTTP{})
	return v
}

func validateRule(sl validator.StructLevel) {
	rule := sl.Current().Interface().(Rule)
	if rule.patternCount() != 1 {
		sl.ReportError(rule.Get, "pattern", "Get", "one_pattern", "")
	}
}

func validateHTTP(sl validator.StructLevel) {
	h := sl.Current().Interface().(HTTP)
	for _, rule := range h.Rules {
		if rule.Selector == "" {
			sl.ReportError(rule.Selector, "selector", "Selector", "required", "")
		}
		for _, binding := range rule.AdditionalBindings {
			if binding.Selector != "" {
				sl.ReportError(binding.Selector, "selector", "Selector", "excluded", "")
			}
			if len(binding.AdditionalBindings) > 0 {
				sl.ReportError(binding.AdditionalBindings, "additional_bindings", "AdditionalBindings", "excluded", "")
			}
		}
	}
}
