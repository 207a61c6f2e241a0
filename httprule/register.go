package httprule

import (
	"errors"
	"fmt"

	pathmatcher "github.com/istio/proxy-sub034"
)

// Register registers rule and its additional bindings with the same method handle. A binding dropped
// by the builder duplicate policy does not prevent the remaining ones from being registered: the
// returned error then Is [pathmatcher.ErrRouteIgnored] and lists every dropped binding. Any other
// error stops the registration.
func Register[T any](b *pathmatcher.Builder[T], rule Rule, method T, opts ...pathmatcher.RegisterOption) error {
	httpMethod, template := rule.Pattern()
	if httpMethod == "" {
		return fmt.Errorf("%w: rule %s has no pattern", ErrInvalidRule, rule.Selector)
	}

	var ignored []error
	if err := b.Register(httpMethod, template, rule.Body, method, opts...); err != nil {
		if !errors.Is(err, pathmatcher.ErrRouteIgnored) {
			return fmt.Errorf("rule %s: %w", rule.Selector, err)
		}
		ignored = append(ignored, fmt.Errorf("rule %s: %w", rule.Selector, err))
	}

	for _, binding := range rule.AdditionalBindings {
		if err := Register(b, binding, method, opts...); err != nil {
			if !errors.Is(err, pathmatcher.ErrRouteIgnored) {
				return fmt.Errorf("additional binding of %s: %w", rule.Selector, err)
			}
			ignored = append(ignored, fmt.Errorf("additional binding of %s: %w", rule.Selector, err))
		}
	}
	return errors.Join(ignored...)
}

// RegisterAll registers every rule of cfg. The method handle of a rule is obtained by calling resolve
// with the rule selector; an unknown selector is an error that Is [ErrUnknownSelector]. Query
// parameters declared as system parameters for the selector are excluded from bindings. Bindings
// dropped by the builder duplicate policy are logged by the builder and are not an error.
func RegisterAll[T any](b *pathmatcher.Builder[T], cfg *Config, resolve func(selector string) (T, bool)) error {
	for _, rule := range cfg.HTTP.Rules {
		method, ok := resolve(rule.Selector)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSelector, rule.Selector)
		}

		var opts []pathmatcher.RegisterOption
		if names := cfg.SystemQueryParams(rule.Selector); len(names) > 0 {
			opts = append(opts, pathmatcher.WithSystemQueryParams(names...))
		}

		if err := Register(b, rule, method, opts...); err != nil && !errors.Is(err, pathmatcher.ErrRouteIgnored) {
			return err
		}
	}
	return nil
}

// NewMatcher builds a [pathmatcher.PathMatcher] from cfg, applying the builder options required by
// the configuration before opts.
func NewMatcher[T any](cfg *Config, resolve func(selector string) (T, bool), opts ...pathmatcher.Option) (*pathmatcher.PathMatcher[T], error) {
	b, err := pathmatcher.NewBuilder[T](append(cfg.BuilderOptions(), opts...)...)
	if err != nil {
		return nil, err
	}
	if err := RegisterAll(b, cfg, resolve); err != nil {
		return nil, err
	}
	return b.Build(), nil
}
