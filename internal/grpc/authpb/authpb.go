// Package authpb описывает gRPC-сервис farm.auth.v1.AuthService. Запросы и ответы
// передаются как google.protobuf.Struct, поля именуются так же, как в JSON API.
package authpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName полное имя сервиса.
const ServiceName = "farm.auth.v1.AuthService"

// Полные имена методов.
const (
	RegisterFullMethodName          = "/" + ServiceName + "/Register"
	LoginFullMethodName             = "/" + ServiceName + "/Login"
	RefreshTokenFullMethodName      = "/" + ServiceName + "/RefreshToken"
	ForgotPasswordFullMethodName    = "/" + ServiceName + "/ForgotPassword"
	ValidateResetCodeFullMethodName = "/" + ServiceName + "/ValidateResetCode"
	ResetPasswordFullMethodName     = "/" + ServiceName + "/ResetPassword"
	ValidateTokenFullMethodName     = "/" + ServiceName + "/ValidateToken"
)

// ErrorFieldKey ключ trailer-метаданных с именем поля, к которому относится ошибка.
const ErrorFieldKey = "x-error-field"

// AuthServiceServer серверная часть сервиса.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RefreshToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ForgotPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateResetCode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv AuthServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceDesc описание сервиса для grpc.Server.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(RegisterFullMethodName, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(LoginFullMethodName, AuthServiceServer.Login)},
		{MethodName: "RefreshToken", Handler: unaryHandler(RefreshTokenFullMethodName, AuthServiceServer.RefreshToken)},
		{MethodName: "ForgotPassword", Handler: unaryHandler(ForgotPasswordFullMethodName, AuthServiceServer.ForgotPassword)},
		{MethodName: "ValidateResetCode", Handler: unaryHandler(ValidateResetCodeFullMethodName, AuthServiceServer.ValidateResetCode)},
		{MethodName: "ResetPassword", Handler: unaryHandler(ResetPasswordFullMethodName, AuthServiceServer.ResetPassword)},
		{MethodName: "ValidateToken", Handler: unaryHandler(ValidateTokenFullMethodName, AuthServiceServer.ValidateToken)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "farm/auth/v1/auth.proto",
}

// RegisterAuthServiceServer регистрирует реализацию сервиса на сервере.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceClient клиентская часть сервиса.
type AuthServiceClient interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RefreshToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ForgotPassword(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ValidateResetCode(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ResetPassword(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ValidateToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type authServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthServiceClient создаёт клиента поверх соединения cc.
func NewAuthServiceClient(cc grpc.ClientConnInterface) AuthServiceClient {
	return &authServiceClient{cc: cc}
}

func (c *authServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *authServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, RegisterFullMethodName, in, opts)
}

func (c *authServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, LoginFullMethodName, in, opts)
}

func (c *authServiceClient) RefreshToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, RefreshTokenFullMethodName, in, opts)
}

func (c *authServiceClient) ForgotPassword(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ForgotPasswordFullMethodName, in, opts)
}

func (c *authServiceClient) ValidateResetCode(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ValidateResetCodeFullMethodName, in, opts)
}

func (c *authServiceClient) ResetPassword(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResetPasswordFullMethodName, in, opts)
}

func (c *authServiceClient) ValidateToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ValidateTokenFullMethodName, in, opts)
}
