package envserver

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const (
	// ProtoFile is the path the service descriptor is registered under.
	ProtoFile    = "tictactoe/env/v1/env.proto"
	protoPackage = "tictactoe.env.v1"
)

// envFile describes every EnvService message. It is registered with
// protoregistry.GlobalFiles so gRPC reflection can serve it.
var envFile protoreflect.FileDescriptor

func init() {
	fd, err := protodesc.NewFile(envFileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("envserver: build %s: %v", ProtoFile, err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("envserver: register %s: %v", ProtoFile, err))
	}
	envFile = fd
}

// messageDescriptor looks up a message declared in envFile.
func messageDescriptor(name protoreflect.Name) protoreflect.MessageDescriptor {
	md := envFile.Messages().ByName(name)
	if md == nil {
		panic(fmt.Sprintf("envserver: %s declares no message %s", ProtoFile, name))
	}
	return md
}

type fieldOpt func(*descriptorpb.FieldDescriptorProto)

func repeated(f *descriptorpb.FieldDescriptorProto) {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
}

// optional marks a proto3 optional field backed by the synthetic oneof at index.
func optional(index int32) fieldOpt {
	return func(f *descriptorpb.FieldDescriptorProto) {
		f.Proto3Optional = proto.Bool(true)
		f.OneofIndex = proto.Int32(index)
	}
}

func field(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type, opts ...fieldOpt) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(jsonName(name)),
		Number:   proto.Int32(num),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     typ.Enum(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func messageField(name string, num int32, msg string) *descriptorpb.FieldDescriptorProto {
	f := field(name, num, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	f.TypeName = proto.String("." + protoPackage + "." + msg)
	return f
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func method(name, in, out string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String("." + protoPackage + "." + in),
		OutputType: proto.String("." + protoPackage + "." + out),
	}
}

func jsonName(name string) string {
	out := make([]byte, 0, len(name))
	upper := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}

func envFileProto() *descriptorpb.FileDescriptorProto {
	const (
		tString = descriptorpb.FieldDescriptorProto_TYPE_STRING
		tInt32  = descriptorpb.FieldDescriptorProto_TYPE_INT32
		tSint32 = descriptorpb.FieldDescriptorProto_TYPE_SINT32
		tInt64  = descriptorpb.FieldDescriptorProto_TYPE_INT64
		tBool   = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		tDouble = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
		tFloat  = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
		tBytes  = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	)

	resetRequest := message("ResetRequest",
		field("session_id", 1, tString),
		field("seed", 2, tInt64, optional(0)),
	)
	resetRequest.OneofDecl = []*descriptorpb.OneofDescriptorProto{{Name: proto.String("_seed")}}

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(ProtoFile),
		Package: proto.String(protoPackage),
		Syntax:  proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/mitchelldurbincs/TicTacToeRL/internal/grpc/envserver"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("DiscreteSpace",
				field("n", 1, tInt32),
			),
			message("BoxSpace",
				field("low", 1, tSint32),
				field("high", 2, tSint32),
				field("shape", 3, tInt32, repeated),
			),
			message("Metadata",
				field("render_modes", 1, tString, repeated),
				field("render_fps", 2, tInt32),
			),
			message("Info",
				field("player", 1, tSint32),
				field("move_accepted", 2, tBool),
				field("winner", 3, tSint32),
				field("action_mask", 4, tBool, repeated),
				field("episode_step", 5, tInt32),
			),
			message("MakeRequest",
				field("env_id", 1, tString),
				field("render_mode", 2, tString),
				field("max_episode_steps", 3, tInt32),
			),
			message("MakeResponse",
				field("session_id", 1, tString),
				messageField("action_space", 2, "DiscreteSpace"),
				messageField("observation_space", 3, "BoxSpace"),
				messageField("metadata", 4, "Metadata"),
			),
			resetRequest,
			message("ResetResponse",
				field("observation", 1, tSint32, repeated),
				messageField("info", 2, "Info"),
			),
			message("StepRequest",
				field("session_id", 1, tString),
				field("action", 2, tInt32),
			),
			message("StepResponse",
				field("observation", 1, tSint32, repeated),
				field("reward", 2, tDouble),
				field("terminated", 3, tBool),
				field("truncated", 4, tBool),
				messageField("info", 5, "Info"),
			),
			message("RenderRequest",
				field("session_id", 1, tString),
			),
			message("RenderResponse",
				field("width", 1, tInt32),
				field("height", 2, tInt32),
				field("pix", 3, tBytes),
			),
			message("CloseRequest",
				field("session_id", 1, tString),
			),
			message("CloseResponse"),
			message("DrainExperiencesRequest",
				field("max", 1, tInt32),
				field("include_tensors", 2, tBool),
			),
			message("DrainExperiencesResponse",
				field("count", 1, tInt32),
				field("data", 2, tBytes),
				field("tensor_shape", 3, tInt32, repeated),
				field("states", 4, tFloat, repeated),
				field("next_states", 5, tFloat, repeated),
				field("action_masks", 6, tFloat, repeated),
			),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("EnvService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("Make", "MakeRequest", "MakeResponse"),
				method("Reset", "ResetRequest", "ResetResponse"),
				method("Step", "StepRequest", "StepResponse"),
				method("Render", "RenderRequest", "RenderResponse"),
				method("Close", "CloseRequest", "CloseResponse"),
				method("DrainExperiences", "DrainExperiencesRequest", "DrainExperiencesResponse"),
			},
		}},
	}
}
