package fieldpath

import (
	"fmt"
	"strconv"
	"strings"

	pathmatcher "github.com/istio/proxy-sub034"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Apply sets the fields of msg designated by bindings, in order. Intermediate messages are created as
// needed. A singular field bound more than once keeps the last value, a repeated field accumulates
// every value. Enum values are given by name, case insensitively, or by number.
func Apply(msg protoreflect.Message, bindings pathmatcher.Bindings) error {
	r := NewResolver(msg.Descriptor())
	for _, b := range bindings {
		fds, err := r.Resolve(b.FieldPath)
		if err != nil {
			return err
		}
		if err := set(msg, fds, b.Value); err != nil {
			return fmt.Errorf("field %s: %w", b.Path(), err)
		}
	}
	return nil
}

func set(msg protoreflect.Message, fds []protoreflect.FieldDescriptor, value string) error {
	last := fds[len(fds)-1]
	if err := checkAssignable(last); err != nil {
		return err
	}

	m := msg
	for _, fd := range fds[:len(fds)-1] {
		m = m.Mutable(fd).Message()
	}

	if last.IsList() {
		list := m.Mutable(last).List()
		v, err := fieldValue(last, list.NewElement(), value)
		if err != nil {
			return err
		}
		list.Append(v)
		return nil
	}

	v, err := fieldValue(last, m.NewField(last), value)
	if err != nil {
		return err
	}
	m.Set(last, v)
	return nil
}

// fieldValue converts s for fd. For wrapper message fields, zero must be a new message of the field type.
func fieldValue(fd protoreflect.FieldDescriptor, zero protoreflect.Value, s string) (protoreflect.Value, error) {
	if fd.Message() != nil {
		return wrapperValue(zero.Message(), s)
	}
	return scalarValue(fd, s)
}

func scalarValue(fd protoreflect.FieldDescriptor, s string) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.StringKind:
		return protoreflect.ValueOfString(s), nil
	case protoreflect.BytesKind:
		return protoreflect.ValueOfBytes([]byte(s)), nil
	case protoreflect.BoolKind:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return protoreflect.Value{}, invalidValue(fd, s)
		}
		return protoreflect.ValueOfBool(b), nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return protoreflect.Value{}, invalidValue(fd, s)
		}
		return protoreflect.ValueOfInt32(int32(n)), nil
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return protoreflect.Value{}, invalidValue(fd, s)
		}
		return protoreflect.ValueOfInt64(n), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return protoreflect.Value{}, invalidValue(fd, s)
		}
		return protoreflect.ValueOfUint32(uint32(n)), nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return protoreflect.Value{}, invalidValue(fd, s)
		}
		return protoreflect.ValueOfUint64(n), nil
	case protoreflect.FloatKind:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return protoreflect.Value{}, invalidValue(fd, s)
		}
		return protoreflect.ValueOfFloat32(float32(f)), nil
	case protoreflect.DoubleKind:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return protoreflect.Value{}, invalidValue(fd, s)
		}
		return protoreflect.ValueOfFloat64(f), nil
	case protoreflect.EnumKind:
		return enumValue(fd, s)
	default:
		return protoreflect.Value{}, fmt.Errorf("%w: unsupported kind %s", ErrInvalidFieldPath, fd.Kind())
	}
}

func enumValue(fd protoreflect.FieldDescriptor, s string) (protoreflect.Value, error) {
	values := fd.Enum().Values()
	if ev := values.ByName(protoreflect.Name(s)); ev != nil {
		return protoreflect.ValueOfEnum(ev.Number()), nil
	}
	for i := 0; i < values.Len(); i++ {
		if ev := values.Get(i); strings.EqualFold(string(ev.Name()), s) {
			return protoreflect.ValueOfEnum(ev.Number()), nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return protoreflect.Value{}, invalidValue(fd, s)
	}
	return protoreflect.ValueOfEnum(protoreflect.EnumNumber(n)), nil
}

func wrapperValue(m protoreflect.Message, s string) (protoreflect.Value, error) {
	fd := m.Descriptor().Fields().ByName("value")
	v, err := scalarValue(fd, s)
	if err != nil {
		return protoreflect.Value{}, err
	}
	m.Set(fd, v)
	return protoreflect.ValueOfMessage(m), nil
}

func isWrapper(md protoreflect.MessageDescriptor) bool {
	switch md.FullName() {
	case "google.protobuf.DoubleValue", "google.protobuf.FloatValue",
		"google.protobuf.Int64Value", "google.protobuf.UInt64Value",
		"google.protobuf.Int32Value", "google.protobuf.UInt32Value",
		"google.protobuf.BoolValue", "google.protobuf.StringValue",
		"google.protobuf.BytesValue":
		return true
	}
	return false
}

func invalidValue(fd protoreflect.FieldDescriptor, s string) error {
	return fmt.Errorf("%w: %q for %s field", ErrInvalidValue, s, fd.Kind())
}
