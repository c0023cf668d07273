package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "laplace.v1.Laplace"

// Full method names
const (
	MethodCompute             = "/" + ServiceName + "/Compute"
	MethodComputeFromEnergies = "/" + ServiceName + "/ComputeFromEnergies"
	MethodTable               = "/" + ServiceName + "/Table"
	MethodHealth              = "/" + ServiceName + "/Health"
)

// LaplaceServer is the server API of laplace.v1.Laplace. Messages are
// google.protobuf.Struct values whose fields are described in codec.go.
type LaplaceServer interface {
	Compute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeFromEnergies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Table(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes laplace.v1.Laplace for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LaplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Compute", Handler: unary(MethodCompute, LaplaceServer.Compute)},
		{MethodName: "ComputeFromEnergies", Handler: unary(MethodComputeFromEnergies, LaplaceServer.ComputeFromEnergies)},
		{MethodName: "Table", Handler: unary(MethodTable, LaplaceServer.Table)},
		{MethodName: "Health", Handler: unary(MethodHealth, LaplaceServer.Health)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "laplace/v1/laplace.proto",
}

type structMethod func(LaplaceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, call structMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LaplaceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LaplaceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
