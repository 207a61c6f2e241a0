// Package fieldpath resolves the field paths produced by a [pathmatcher.PathMatcher] against protobuf
// message descriptors, and applies bindings to messages.
package fieldpath

import (
	"errors"
	"fmt"
	"strings"

	pathmatcher "github.com/istio/proxy-sub034"
	"google.golang.org/protobuf/reflect/protoreflect"
)

var (
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidFieldPath = errors.New("invalid field path")
	ErrInvalidValue     = errors.New("invalid value")
)

// Resolver maps a field path to the chain of field descriptors it designates.
type Resolver interface {
	Resolve(fieldPath []string) ([]protoreflect.FieldDescriptor, error)
}

type messageResolver struct {
	md protoreflect.MessageDescriptor
}

// NewResolver returns a Resolver walking the fields of md. Every field but the last must be a singular
// message field. Names are matched against the proto name first and the json name second.
func NewResolver(md protoreflect.MessageDescriptor) Resolver {
	return messageResolver{md: md}
}

func (r messageResolver) Resolve(fieldPath []string) ([]protoreflect.FieldDescriptor, error) {
	if len(fieldPath) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidFieldPath)
	}

	fds := make([]protoreflect.FieldDescriptor, 0, len(fieldPath))
	md := r.md
	for i, name := range fieldPath {
		if md == nil {
			return nil, fmt.Errorf("%w: %s is not a message", ErrInvalidFieldPath, strings.Join(fieldPath[:i], "."))
		}

		fields := md.Fields()
		fd := fields.ByName(protoreflect.Name(name))
		if fd == nil {
			fd = fields.ByJSONName(name)
		}
		if fd == nil {
			return nil, fmt.Errorf("%w: %s in %s", ErrUnknownField, name, md.FullName())
		}
		fds = append(fds, fd)

		md = nil
		if fd.Message() != nil && fd.Cardinality() != protoreflect.Repeated {
			md = fd.Message()
		}
	}
	return fds, nil
}

// ValidateTemplate checks that every variable of t resolves to a field that can hold a binding value.
func ValidateTemplate(r Resolver, t *pathmatcher.Template) error {
	for _, v := range t.Variables {
		fds, err := r.Resolve(v.FieldPath)
		if err != nil {
			return err
		}
		if err := checkAssignable(fds[len(fds)-1]); err != nil {
			return fmt.Errorf("variable %s: %w", strings.Join(v.FieldPath, "."), err)
		}
	}
	return nil
}

// ValidateBody checks that the body field path of a rule resolves. The empty path and "*" always do.
func ValidateBody(r Resolver, bodyFieldPath string) error {
	if bodyFieldPath == "" || bodyFieldPath == "*" {
		return nil
	}
	_, err := r.Resolve(strings.Split(bodyFieldPath, "."))
	return err
}

func checkAssignable(fd protoreflect.FieldDescriptor) error {
	if fd.IsMap() {
		return fmt.Errorf("%w: %s is a map", ErrInvalidFieldPath, fd.FullName())
	}
	if fd.Message() != nil && !isWrapper(fd.Message()) {
		return fmt.Errorf("%w: %s is a message", ErrInvalidFieldPath, fd.FullName())
	}
	return nil
}
