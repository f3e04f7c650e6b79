package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const AuthServiceName = "gophauth.v1.AuthService"

const (
	AuthService_Register_FullMethodName = "/" + AuthServiceName + "/Register"
	AuthService_Login_FullMethodName    = "/" + AuthServiceName + "/Login"
	AuthService_Me_FullMethodName       = "/" + AuthServiceName + "/Me"
	AuthService_Validate_FullMethodName = "/" + AuthServiceName + "/Validate"
	AuthService_Ping_FullMethodName     = "/" + AuthServiceName + "/Ping"
)

// AuthServiceServer is the server API for AuthService.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Me(context.Context, *MeRequest) (*Profile, error)
	Validate(context.Context, *ValidateRequest) (*ValidateResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// UnimplementedAuthServiceServer can be embedded to keep servers compiling
// when methods are added.
type UnimplementedAuthServiceServer struct{}

func (UnimplementedAuthServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedAuthServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedAuthServiceServer) Me(context.Context, *MeRequest) (*Profile, error) {
	return nil, status.Error(codes.Unimplemented, "method Me not implemented")
}
func (UnimplementedAuthServiceServer) Validate(context.Context, *ValidateRequest) (*ValidateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Validate not implemented")
}
func (UnimplementedAuthServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

func unary[Req, Resp any](fullMethod string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthService_ServiceDesc describes AuthService for grpc.RegisterService.
var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(AuthService_Register_FullMethodName, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: unary(AuthService_Login_FullMethodName, AuthServiceServer.Login)},
		{MethodName: "Me", Handler: unary(AuthService_Me_FullMethodName, AuthServiceServer.Me)},
		{MethodName: "Validate", Handler: unary(AuthService_Validate_FullMethodName, AuthServiceServer.Validate)},
		{MethodName: "Ping", Handler: unary(AuthService_Ping_FullMethodName, AuthServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/v1/auth",
}

// AuthServiceClient is the client API for AuthService. Calls are sent with
// the JSON content-subtype.
type AuthServiceClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	Me(ctx context.Context, in *MeRequest, opts ...grpc.CallOption) (*Profile, error)
	Validate(ctx context.Context, in *ValidateRequest, opts ...grpc.CallOption) (*ValidateResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, AuthService_Register_FullMethodName, in, opts)
}

func (c *authServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, AuthService_Login_FullMethodName, in, opts)
}

func (c *authServiceClient) Me(ctx context.Context, in *MeRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, AuthService_Me_FullMethodName, in, opts)
}

func (c *authServiceClient) Validate(ctx context.Context, in *ValidateRequest, opts ...grpc.CallOption) (*ValidateResponse, error) {
	return invoke[ValidateResponse](ctx, c.cc, AuthService_Validate_FullMethodName, in, opts)
}

func (c *authServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, AuthService_Ping_FullMethodName, in, opts)
}
