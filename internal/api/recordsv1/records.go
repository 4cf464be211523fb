// Package recordsv1 declares the todo.records.v1.Records gRPC service.
//
// Every message is a google.protobuf.Struct. Requests carry the keys listed below;
// records travel as nested structs with RFC 3339 timestamps and UUID strings.
//
//	Register     {email, password, password_confirm}             -> user record
//	Login        {email, password}                               -> {token, expires, record}
//	GetOne       {collection, id}                                -> record
//	GetFullList  {collection, filter?, params?, sort?}           -> {items: [record]}
//	Create       {collection, record}                            -> record
//	Update       {collection, id, record}                        -> record
//	Delete       {collection, id}                                -> {}
//	Subscribe    {collection, filter?, params?}                  -> stream {action, record}
//
// The first Subscribe frame is always {action: "connect"}.
package recordsv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "todo.records.v1.Records"

// Full method names.
const (
	MethodRegister    = "/" + ServiceName + "/Register"
	MethodLogin       = "/" + ServiceName + "/Login"
	MethodGetOne      = "/" + ServiceName + "/GetOne"
	MethodGetFullList = "/" + ServiceName + "/GetFullList"
	MethodCreate      = "/" + ServiceName + "/Create"
	MethodUpdate      = "/" + ServiceName + "/Update"
	MethodDelete      = "/" + ServiceName + "/Delete"
	MethodSubscribe   = "/" + ServiceName + "/Subscribe"
)

// Message keys.
const (
	KeyCollection      = "collection"
	KeyID              = "id"
	KeyFilter          = "filter"
	KeyParams          = "params"
	KeySort            = "sort"
	KeyRecord          = "record"
	KeyItems           = "items"
	KeyAction          = "action"
	KeyEmail           = "email"
	KeyPassword        = "password"
	KeyPasswordConfirm = "password_confirm"
	KeyToken           = "token"
	KeyExpires         = "expires"
)

// RecordsServer is the server API of the Records service.
type RecordsServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOne(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFullList(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Update(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Subscribe(*structpb.Struct, SubscribeServer) error
}

// SubscribeServer is the server side of a Subscribe stream.
type SubscribeServer = grpc.ServerStreamingServer[structpb.Struct]

// SubscribeClient is the client side of a Subscribe stream.
type SubscribeClient = grpc.ServerStreamingClient[structpb.Struct]

// UnimplementedRecordsServer answers Unimplemented for every method.
type UnimplementedRecordsServer struct{}

func (UnimplementedRecordsServer) Register(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedRecordsServer) Login(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedRecordsServer) GetOne(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetOne not implemented")
}
func (UnimplementedRecordsServer) GetFullList(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetFullList not implemented")
}
func (UnimplementedRecordsServer) Create(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Create not implemented")
}
func (UnimplementedRecordsServer) Update(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Update not implemented")
}
func (UnimplementedRecordsServer) Delete(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedRecordsServer) Subscribe(*structpb.Struct, SubscribeServer) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}

// RegisterRecordsServer registers srv on s.
func RegisterRecordsServer(s grpc.ServiceRegistrar, srv RecordsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryCall func(RecordsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RecordsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RecordsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(RecordsServer).Subscribe(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// ServiceDesc describes the Records service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecordsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, RecordsServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, RecordsServer.Login)},
		{MethodName: "GetOne", Handler: unaryHandler(MethodGetOne, RecordsServer.GetOne)},
		{MethodName: "GetFullList", Handler: unaryHandler(MethodGetFullList, RecordsServer.GetFullList)},
		{MethodName: "Create", Handler: unaryHandler(MethodCreate, RecordsServer.Create)},
		{MethodName: "Update", Handler: unaryHandler(MethodUpdate, RecordsServer.Update)},
		{MethodName: "Delete", Handler: unaryHandler(MethodDelete, RecordsServer.Delete)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: subscribeHandler, ServerStreams: true},
	},
}

// RecordsClient is the client API of the Records service.
type RecordsClient interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetOne(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetFullList(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Create(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Subscribe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (SubscribeClient, error)
}

type recordsClient struct{ cc grpc.ClientConnInterface }

// NewRecordsClient returns a client stub over cc.
func NewRecordsClient(cc grpc.ClientConnInterface) RecordsClient { return &recordsClient{cc: cc} }

func (c *recordsClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordsClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodRegister, in, opts)
}
func (c *recordsClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodLogin, in, opts)
}
func (c *recordsClient) GetOne(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetOne, in, opts)
}
func (c *recordsClient) GetFullList(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetFullList, in, opts)
}
func (c *recordsClient) Create(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCreate, in, opts)
}
func (c *recordsClient) Update(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodUpdate, in, opts)
}
func (c *recordsClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodDelete, in, opts)
}

func (c *recordsClient) Subscribe(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (SubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodSubscribe, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
