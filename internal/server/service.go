package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "intake.v1.IntakeService"

	analyzeMethod = "/" + ServiceName + "/Analyze"
	submitMethod  = "/" + ServiceName + "/Submit"
	exportMethod  = "/" + ServiceName + "/Export"
)

// IntakeServer is the server API of intake.v1.IntakeService. Messages are
// google.protobuf.Struct so the record shape stays the JSON shape.
type IntakeServer interface {
	Analyze(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Submit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Export(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterIntakeServer(s grpc.ServiceRegistrar, srv IntakeServer) {
	s.RegisterService(&IntakeServiceDesc, srv)
}

func unaryHandler(method string, call func(IntakeServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IntakeServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IntakeServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var IntakeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IntakeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: unaryHandler(analyzeMethod, IntakeServer.Analyze)},
		{MethodName: "Submit", Handler: unaryHandler(submitMethod, IntakeServer.Submit)},
		{MethodName: "Export", Handler: unaryHandler(exportMethod, IntakeServer.Export)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "intake/v1/intake.proto",
}

// IntakeClient calls intake.v1.IntakeService.
type IntakeClient struct {
	cc grpc.ClientConnInterface
}

func NewIntakeClient(cc grpc.ClientConnInterface) *IntakeClient {
	return &IntakeClient{cc: cc}
}

func (c *IntakeClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *IntakeClient) Analyze(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, analyzeMethod, in, opts...)
}

func (c *IntakeClient) Submit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, submitMethod, in, opts...)
}

func (c *IntakeClient) Export(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, exportMethod, in, opts...)
}
