package envserver

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tictactoe.env.v1.EnvService"

const (
	MethodMake             = "/" + ServiceName + "/Make"
	MethodReset            = "/" + ServiceName + "/Reset"
	MethodStep             = "/" + ServiceName + "/Step"
	MethodRender           = "/" + ServiceName + "/Render"
	MethodClose            = "/" + ServiceName + "/Close"
	MethodDrainExperiences = "/" + ServiceName + "/DrainExperiences"
)

// EnvServiceServer is the server API for EnvService.
type EnvServiceServer interface {
	Make(context.Context, *MakeRequest) (*MakeResponse, error)
	Reset(context.Context, *ResetRequest) (*ResetResponse, error)
	Step(context.Context, *StepRequest) (*StepResponse, error)
	Render(context.Context, *RenderRequest) (*RenderResponse, error)
	Close(context.Context, *CloseRequest) (*CloseResponse, error)
	DrainExperiences(context.Context, *DrainExperiencesRequest) (*DrainExperiencesResponse, error)
}

// wirePtr constrains a handler's request type to pointers that decode from protobuf.
type wirePtr[T any] interface {
	*T
	wireMessage
}

// unaryHandler decodes the request into its Go form, runs call through the
// interceptor chain and hands the response back as a protobuf message.
func unaryHandler[Req any, Resp wireMessage, PReq wirePtr[Req]](fullMethod string, call func(EnvServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		msg := newProto(PReq(in))
		if err := dec(msg); err != nil {
			return nil, err
		}
		PReq(in).decode(fields{msg})

		handler := func(ctx context.Context, req any) (any, error) {
			resp, err := call(srv.(EnvServiceServer), ctx, req.(*Req))
			if err != nil {
				return nil, err
			}
			return toProto(resp), nil
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, handler)
	}
}

// EnvService_ServiceDesc is the grpc.ServiceDesc for EnvService.
var EnvService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EnvServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Make", Handler: unaryHandler(MethodMake, EnvServiceServer.Make)},
		{MethodName: "Reset", Handler: unaryHandler(MethodReset, EnvServiceServer.Reset)},
		{MethodName: "Step", Handler: unaryHandler(MethodStep, EnvServiceServer.Step)},
		{MethodName: "Render", Handler: unaryHandler(MethodRender, EnvServiceServer.Render)},
		{MethodName: "Close", Handler: unaryHandler(MethodClose, EnvServiceServer.Close)},
		{MethodName: "DrainExperiences", Handler: unaryHandler(MethodDrainExperiences, EnvServiceServer.DrainExperiences)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: ProtoFile,
}

// RegisterEnvServiceServer registers srv on s.
func RegisterEnvServiceServer(s grpc.ServiceRegistrar, srv EnvServiceServer) {
	s.RegisterService(&EnvService_ServiceDesc, srv)
}
