// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package pathmatcher

import (
	"fmt"
	"log/slog"
)

// DuplicatePolicy controls what happens when a registration resolves to a trie path, http method and
// custom verb already taken by a previous registration.
type DuplicatePolicy uint8

const (
	// KeepFirst keeps the first registration. Later ones do not change the matcher.
	KeepFirst DuplicatePolicy = iota
	// ReplaceExisting lets the latest registration win.
	ReplaceExisting
	// MarkAmbiguous keeps the first registration but flags the slot as ambiguous, so that
	// lookups reaching it report no match.
	MarkAmbiguous

	duplicatePolicySentinel
)

func (p DuplicatePolicy) String() string {
	switch p {
	case KeepFirst:
		return "keep-first"
	case ReplaceExisting:
		return "replace-existing"
	case MarkAmbiguous:
		return "mark-ambiguous"
	default:
		return "unknown"
	}
}

// Option configures a [Builder].
type Option interface {
	applyBuilder(*config) error
}

// RegisterOption configures a single registration.
type RegisterOption interface {
	applyRegister(*registration) error
}

type config struct {
	logger                *slog.Logger
	unescapeSpec          UnescapeSpec
	duplicatePolicy       DuplicatePolicy
	queryUnescapePlus     bool
	matchUnregisteredVerb bool
	failOnDuplicate       bool
}

func defaultConfig() config {
	return config{
		logger:          discardLogger(),
		unescapeSpec:    UnescapeAllExceptReserved,
		duplicatePolicy: KeepFirst,
	}
}

type optionFunc func(*config) error

func (o optionFunc) applyBuilder(c *config) error {
	return o(c)
}

type registerOptionFunc func(*registration) error

func (o registerOptionFunc) applyRegister(r *registration) error {
	return o(r)
}

// WithUnescapeSpec configures how multi-segment variable captures are percent-decoded. A capture
// is multi-segment when it spans more than one path segment or ends in a '**' wildcard. Single
// segment captures are always fully decoded. The default is [UnescapeAllExceptReserved].
func WithUnescapeSpec(spec UnescapeSpec) Option {
	return optionFunc(func(c *config) error {
		if spec >= unescapeSpecSentinel {
			return fmt.Errorf("%w: invalid unescape spec", ErrInvalidConfig)
		}
		c.unescapeSpec = spec
		return nil
	})
}

// WithQueryParamUnescapePlus enables decoding '+' as a space in query parameter values. Disabled by default.
func WithQueryParamUnescapePlus(enable bool) Option {
	return optionFunc(func(c *config) error {
		c.queryUnescapePlus = enable
		return nil
	})
}

// WithMatchUnregisteredCustomVerbs makes the matcher split any trailing ":verb" of a request path
// from the last segment, even when no template declares that verb. By default, only verbs used by
// a registered template are recognized, and an unknown ":verb" suffix stays part of the last segment.
func WithMatchUnregisteredCustomVerbs(enable bool) Option {
	return optionFunc(func(c *config) error {
		c.matchUnregisteredVerb = enable
		return nil
	})
}

// WithFailOnDuplicate makes [Builder.Register] return an error that Is [ErrRouteExist] when a
// registration conflicts with an existing one. The matcher is left unchanged whatever the
// [DuplicatePolicy]. Disabled by default.
func WithFailOnDuplicate(enable bool) Option {
	return optionFunc(func(c *config) error {
		c.failOnDuplicate = enable
		return nil
	})
}

// WithDuplicatePolicy configures how conflicting registrations are resolved when [WithFailOnDuplicate]
// is not enabled. The default is [KeepFirst].
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return optionFunc(func(c *config) error {
		if policy >= duplicatePolicySentinel {
			return fmt.Errorf("%w: invalid duplicate policy", ErrInvalidConfig)
		}
		c.duplicatePolicy = policy
		return nil
	})
}

// WithLogger sets the logger used while registering templates. By default, nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(c *config) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
		}
		c.logger = logger
		return nil
	})
}

// WithSystemQueryParams declares query parameter names reserved for transport concerns (e.g. "api_key").
// They are never turned into variable bindings for this registration.
func WithSystemQueryParams(names ...string) RegisterOption {
	return registerOptionFunc(func(r *registration) error {
		for _, name := range names {
			if name == "" {
				return fmt.Errorf("%w: system query parameter name cannot be empty", ErrInvalidConfig)
			}
			if r.systemQueryParams == nil {
				r.systemQueryParams = make(map[string]struct{}, len(names))
			}
			r.systemQueryParams[name] = struct{}{}
		}
		return nil
	})
}
