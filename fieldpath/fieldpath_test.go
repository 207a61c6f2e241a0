package fieldpath

import (
	"testing"

	pathmatcher "github.com/istio/proxy-sub034"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
)

func scalarField(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Type:   typ.Enum(),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
	}
}

func typedField(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	fd := scalarField(name, number, typ)
	fd.TypeName = proto.String(typeName)
	return fd
}

func bookDescriptor(t *testing.T) protoreflect.MessageDescriptor {
	t.Helper()

	displayName := scalarField("display_name", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING)
	displayName.JsonName = proto.String("displayName")
	tags := scalarField("tags", 6, descriptorpb.FieldDescriptorProto_TYPE_STRING)
	tags.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	reviewers := typedField("reviewers", 10, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".library.v1.Author")
	reviewers.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()

	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String("library/v1/book.proto"),
		Package:    proto.String("library.v1"),
		Syntax:     proto.String("proto3"),
		Dependency: []string{"google/protobuf/wrappers.proto"},
		EnumType: []*descriptorpb.EnumDescriptorProto{
			{
				Name: proto.String("View"),
				Value: []*descriptorpb.EnumValueDescriptorProto{
					{Name: proto.String("VIEW_UNSPECIFIED"), Number: proto.Int32(0)},
					{Name: proto.String("VIEW_BASIC"), Number: proto.Int32(1)},
					{Name: proto.String("VIEW_FULL"), Number: proto.Int32(2)},
				},
			},
		},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name:  proto.String("Author"),
				Field: []*descriptorpb.FieldDescriptorProto{displayName},
			},
			{
				Name: proto.String("Book"),
				Field: []*descriptorpb.FieldDescriptorProto{
					scalarField("name", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
					typedField("author", 2, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".library.v1.Author"),
					scalarField("page_count", 3, descriptorpb.FieldDescriptorProto_TYPE_INT32),
					scalarField("price", 4, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE),
					typedField("view", 5, descriptorpb.FieldDescriptorProto_TYPE_ENUM, ".library.v1.View"),
					tags,
					scalarField("published", 7, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
					typedField("subtitle", 8, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, ".google.protobuf.StringValue"),
					scalarField("isbn", 9, descriptorpb.FieldDescriptorProto_TYPE_UINT64),
					reviewers,
				},
			},
		},
	}

	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	require.NoError(t, err)
	return fd.Messages().ByName("Book")
}

func TestResolve(t *testing.T) {
	r := NewResolver(bookDescriptor(t))

	cases := []struct {
		name      string
		fieldPath []string
		want      []protoreflect.Name
		wantErr   error
	}{
		{name: "top level field", fieldPath: []string{"name"}, want: []protoreflect.Name{"name"}},
		{name: "nested field", fieldPath: []string{"author", "display_name"}, want: []protoreflect.Name{"author", "display_name"}},
		{name: "json name", fieldPath: []string{"author", "displayName"}, want: []protoreflect.Name{"author", "display_name"}},
		{name: "message field", fieldPath: []string{"author"}, want: []protoreflect.Name{"author"}},
		{name: "unknown field", fieldPath: []string{"title"}, wantErr: ErrUnknownField},
		{name: "unknown nested field", fieldPath: []string{"author", "email"}, wantErr: ErrUnknownField},
		{name: "through scalar", fieldPath: []string{"name", "first"}, wantErr: ErrInvalidFieldPath},
		{name: "through repeated message", fieldPath: []string{"reviewers", "display_name"}, wantErr: ErrInvalidFieldPath},
		{name: "empty path", wantErr: ErrInvalidFieldPath},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fds, err := r.Resolve(tc.fieldPath)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			names := make([]protoreflect.Name, 0, len(fds))
			for _, fd := range fds {
				names = append(names, fd.Name())
			}
			assert.Equal(t, tc.want, names)
		})
	}
}

func TestApply(t *testing.T) {
	md := bookDescriptor(t)
	fields := md.Fields()
	msg := dynamicpb.NewMessage(md)

	err := Apply(msg, pathmatcher.Bindings{
		{FieldPath: []string{"name"}, Value: "shelves/s1/books/b1"},
		{FieldPath: []string{"author", "display_name"}, Value: "Ursula"},
		{FieldPath: []string{"page_count"}, Value: "120"},
		{FieldPath: []string{"page_count"}, Value: "250"},
		{FieldPath: []string{"price"}, Value: "9.5"},
		{FieldPath: []string{"view"}, Value: "view_full"},
		{FieldPath: []string{"tags"}, Value: "scifi"},
		{FieldPath: []string{"tags"}, Value: "classic"},
		{FieldPath: []string{"published"}, Value: "true"},
		{FieldPath: []string{"subtitle"}, Value: "A novel"},
		{FieldPath: []string{"isbn"}, Value: "9780441478125"},
	})
	require.NoError(t, err)

	assert.Equal(t, "shelves/s1/books/b1", msg.Get(fields.ByName("name")).String())
	author := msg.Get(fields.ByName("author")).Message()
	assert.Equal(t, "Ursula", author.Get(author.Descriptor().Fields().ByName("display_name")).String())
	assert.Equal(t, int64(250), msg.Get(fields.ByName("page_count")).Int())
	assert.Equal(t, 9.5, msg.Get(fields.ByName("price")).Float())
	assert.Equal(t, protoreflect.EnumNumber(2), msg.Get(fields.ByName("view")).Enum())
	assert.True(t, msg.Get(fields.ByName("published")).Bool())
	assert.Equal(t, uint64(9780441478125), msg.Get(fields.ByName("isbn")).Uint())

	tags := msg.Get(fields.ByName("tags")).List()
	require.Equal(t, 2, tags.Len())
	assert.Equal(t, "scifi", tags.Get(0).String())
	assert.Equal(t, "classic", tags.Get(1).String())

	subtitle := msg.Get(fields.ByName("subtitle")).Message()
	assert.Equal(t, "A novel", subtitle.Get(subtitle.Descriptor().Fields().ByName("value")).String())
}

func TestApplyEnumByName(t *testing.T) {
	md := bookDescriptor(t)

	cases := []struct {
		value string
		want  protoreflect.EnumNumber
	}{
		{value: "VIEW_BASIC", want: 1},
		{value: "view_basic", want: 1},
		{value: "View_Full", want: 2},
		{value: "VIEW_UNSPECIFIED", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			msg := dynamicpb.NewMessage(md)
			require.NoError(t, Apply(msg, pathmatcher.Bindings{{FieldPath: []string{"view"}, Value: tc.value}}))
			assert.Equal(t, tc.want, msg.Get(md.Fields().ByName("view")).Enum())
		})
	}
}

func TestApplyEnumByNumber(t *testing.T) {
	md := bookDescriptor(t)
	msg := dynamicpb.NewMessage(md)

	require.NoError(t, Apply(msg, pathmatcher.Bindings{{FieldPath: []string{"view"}, Value: "1"}}))
	assert.Equal(t, protoreflect.EnumNumber(1), msg.Get(md.Fields().ByName("view")).Enum())
}

func TestApplyError(t *testing.T) {
	md := bookDescriptor(t)

	cases := []struct {
		name    string
		binding pathmatcher.Binding
		wantErr error
	}{
		{name: "unknown field", binding: pathmatcher.Binding{FieldPath: []string{"title"}, Value: "x"}, wantErr: ErrUnknownField},
		{name: "invalid int", binding: pathmatcher.Binding{FieldPath: []string{"page_count"}, Value: "many"}, wantErr: ErrInvalidValue},
		{name: "int overflow", binding: pathmatcher.Binding{FieldPath: []string{"page_count"}, Value: "4294967296"}, wantErr: ErrInvalidValue},
		{name: "negative uint", binding: pathmatcher.Binding{FieldPath: []string{"isbn"}, Value: "-1"}, wantErr: ErrInvalidValue},
		{name: "invalid bool", binding: pathmatcher.Binding{FieldPath: []string{"published"}, Value: "yes"}, wantErr: ErrInvalidValue},
		{name: "unknown enum", binding: pathmatcher.Binding{FieldPath: []string{"view"}, Value: "VIEW_NONE"}, wantErr: ErrInvalidValue},
		{name: "message field", binding: pathmatcher.Binding{FieldPath: []string{"author"}, Value: "x"}, wantErr: ErrInvalidFieldPath},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Apply(dynamicpb.NewMessage(md), pathmatcher.Bindings{tc.binding})
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestApplyMatch(t *testing.T) {
	b, err := pathmatcher.NewBuilder[string]()
	require.NoError(t, err)
	require.NoError(t, b.Register("GET", "/v1/{name=shelves/*/books/*}", "", "GetBook"))
	pm := b.Build()

	m, ok := pm.Lookup("GET", "/v1/shelves/s1/books/b%201", "view=VIEW_FULL&author.display_name=Le%20Guin")
	require.True(t, ok)

	md := bookDescriptor(t)
	msg := dynamicpb.NewMessage(md)
	require.NoError(t, Apply(msg, m.Bindings))

	assert.Equal(t, "shelves/s1/books/b 1", msg.Get(md.Fields().ByName("name")).String())
	assert.Equal(t, protoreflect.EnumNumber(2), msg.Get(md.Fields().ByName("view")).Enum())
	author := msg.Get(md.Fields().ByName("author")).Message()
	assert.Equal(t, "Le Guin", author.Get(author.Descriptor().Fields().ByName("display_name")).String())
}

func TestValidateTemplate(t *testing.T) {
	r := NewResolver(bookDescriptor(t))

	cases := []struct {
		name     string
		template string
		wantErr  error
	}{
		{name: "valid", template: "/v1/{name=shelves/*/books/*}/authors/{author.display_name}"},
		{name: "wrapper", template: "/v1/books/{subtitle}"},
		{name: "no variables", template: "/v1/books"},
		{name: "unknown field", template: "/v1/books/{title}", wantErr: ErrUnknownField},
		{name: "message field", template: "/v1/books/{author}", wantErr: ErrInvalidFieldPath},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTemplate(r, pathmatcher.MustParseTemplate(tc.template))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateBody(t *testing.T) {
	r := NewResolver(bookDescriptor(t))

	assert.NoError(t, ValidateBody(r, ""))
	assert.NoError(t, ValidateBody(r, "*"))
	assert.NoError(t, ValidateBody(r, "author"))
	assert.NoError(t, ValidateBody(r, "author.display_name"))
	assert.ErrorIs(t, ValidateBody(r, "review"), ErrUnknownField)
}
