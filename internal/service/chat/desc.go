package chat

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/nearmatch/internal/server"
)

const ServiceName = "nearmatch.Chat"

// Server is the Chat gRPC API.
type Server interface {
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		server.Unary(ServiceName, "SendMessage",
			func(srv any, ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
				return srv.(Server).SendMessage(ctx, req)
			}),
		server.Unary(ServiceName, "ListMessages",
			func(srv any, ctx context.Context, req *ListMessagesRequest) (*ListMessagesResponse, error) {
				return srv.(Server).ListMessages(ctx, req)
			}),
	},
	Metadata: "nearmatch/chat",
}
