// internal/grpc/service.go
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Сервис описан вручную поверх well-known типов protobuf, поэтому отдельная
// генерация кода не нужна: запросы - StringValue с ID фильма, ответы - Struct/BoolValue.
const (
	ServiceName = "catalog.v1.CatalogInterService"

	GetMovieInfoMethod      = "/" + ServiceName + "/GetMovieInfo"
	CheckMovieExistsMethod  = "/" + ServiceName + "/CheckMovieExists"
	GetMovieAggregateMethod = "/" + ServiceName + "/GetMovieAggregate"
)

// CatalogInterServiceServer - серверная часть межсервисного API каталога.
type CatalogInterServiceServer interface {
	GetMovieInfo(ctx context.Context, movieID *wrapperspb.StringValue) (*structpb.Struct, error)
	CheckMovieExists(ctx context.Context, movieID *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	GetMovieAggregate(ctx context.Context, movieID *wrapperspb.StringValue) (*structpb.Struct, error)
}

// ServiceDesc - описание сервиса для grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogInterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetMovieInfo",
			Handler: movieIDHandler(GetMovieInfoMethod, func(s CatalogInterServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
				return s.GetMovieInfo(ctx, in)
			}),
		},
		{
			MethodName: "CheckMovieExists",
			Handler: movieIDHandler(CheckMovieExistsMethod, func(s CatalogInterServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
				return s.CheckMovieExists(ctx, in)
			}),
		},
		{
			MethodName: "GetMovieAggregate",
			Handler: movieIDHandler(GetMovieAggregateMethod, func(s CatalogInterServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
				return s.GetMovieAggregate(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/catalog.proto",
}

// RegisterCatalogInterServiceServer регистрирует реализацию на gRPC сервере.
func RegisterCatalogInterServiceServer(s grpc.ServiceRegistrar, srv CatalogInterServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type movieIDCall func(CatalogInterServiceServer, context.Context, *wrapperspb.StringValue) (proto.Message, error)

func movieIDHandler(fullMethod string, call movieIDCall) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CatalogInterServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(CatalogInterServiceServer), ctx, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}
