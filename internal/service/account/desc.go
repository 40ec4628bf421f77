package account

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/nearmatch/internal/server"
)

const ServiceName = "nearmatch.Account"

// Server is the Account gRPC API: sign-up verification, profile switches and
// push device registration.
type Server interface {
	SendEmailCode(context.Context, *SendEmailCodeRequest) (*SendCodeResponse, error)
	VerifyEmailCode(context.Context, *VerifyEmailCodeRequest) (*VerifyCodeResponse, error)
	SendPhoneCode(context.Context, *SendPhoneCodeRequest) (*SendCodeResponse, error)
	VerifyPhoneCode(context.Context, *VerifyPhoneCodeRequest) (*VerifyCodeResponse, error)
	RegisterUser(context.Context, *RegisterUserRequest) (*RegisterUserResponse, error)
	DeleteAccount(context.Context, *DeleteAccountRequest) (*DeleteAccountResponse, error)
	SetMatchable(context.Context, *SetMatchableRequest) (*SetMatchableResponse, error)
	RegisterDevice(context.Context, *RegisterDeviceRequest) (*RegisterDeviceResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		server.Unary(ServiceName, "SendEmailCode",
			func(srv any, ctx context.Context, req *SendEmailCodeRequest) (*SendCodeResponse, error) {
				return srv.(Server).SendEmailCode(ctx, req)
			}),
		server.Unary(ServiceName, "VerifyEmailCode",
			func(srv any, ctx context.Context, req *VerifyEmailCodeRequest) (*VerifyCodeResponse, error) {
				return srv.(Server).VerifyEmailCode(ctx, req)
			}),
		server.Unary(ServiceName, "SendPhoneCode",
			func(srv any, ctx context.Context, req *SendPhoneCodeRequest) (*SendCodeResponse, error) {
				return srv.(Server).SendPhoneCode(ctx, req)
			}),
		server.Unary(ServiceName, "VerifyPhoneCode",
			func(srv any, ctx context.Context, req *VerifyPhoneCodeRequest) (*VerifyCodeResponse, error) {
				return srv.(Server).VerifyPhoneCode(ctx, req)
			}),
		server.Unary(ServiceName, "RegisterUser",
			func(srv any, ctx context.Context, req *RegisterUserRequest) (*RegisterUserResponse, error) {
				return srv.(Server).RegisterUser(ctx, req)
			}),
		server.Unary(ServiceName, "DeleteAccount",
			func(srv any, ctx context.Context, req *DeleteAccountRequest) (*DeleteAccountResponse, error) {
				return srv.(Server).DeleteAccount(ctx, req)
			}),
		server.Unary(ServiceName, "SetMatchable",
			func(srv any, ctx context.Context, req *SetMatchableRequest) (*SetMatchableResponse, error) {
				return srv.(Server).SetMatchable(ctx, req)
			}),
		server.Unary(ServiceName, "RegisterDevice",
			func(srv any, ctx context.Context, req *RegisterDeviceRequest) (*RegisterDeviceResponse, error) {
				return srv.(Server).RegisterDevice(ctx, req)
			}),
	},
	Metadata: "nearmatch/account",
}
