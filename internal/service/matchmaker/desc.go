package matchmaker

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/nearmatch/internal/server"
)

const ServiceName = "nearmatch.Matchmaker"

// Server is the Matchmaker gRPC API.
type Server interface {
	UpdateLocation(context.Context, *UpdateLocationRequest) (*UpdateLocationResponse, error)
	AcceptMatch(context.Context, *AcceptMatchRequest) (*MatchResponse, error)
	ForceCreateMatch(context.Context, *ForceCreateMatchRequest) (*MatchResponse, error)
	StopSharing(context.Context, *StopSharingRequest) (*StopSharingResponse, error)
	ListNotifications(context.Context, *ListNotificationsRequest) (*ListNotificationsResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		server.Unary(ServiceName, "UpdateLocation",
			func(srv any, ctx context.Context, req *UpdateLocationRequest) (*UpdateLocationResponse, error) {
				return srv.(Server).UpdateLocation(ctx, req)
			}),
		server.Unary(ServiceName, "AcceptMatch",
			func(srv any, ctx context.Context, req *AcceptMatchRequest) (*MatchResponse, error) {
				return srv.(Server).AcceptMatch(ctx, req)
			}),
		server.Unary(ServiceName, "ForceCreateMatch",
			func(srv any, ctx context.Context, req *ForceCreateMatchRequest) (*MatchResponse, error) {
				return srv.(Server).ForceCreateMatch(ctx, req)
			}),
		server.Unary(ServiceName, "StopSharing",
			func(srv any, ctx context.Context, req *StopSharingRequest) (*StopSharingResponse, error) {
				return srv.(Server).StopSharing(ctx, req)
			}),
		server.Unary(ServiceName, "ListNotifications",
			func(srv any, ctx context.Context, req *ListNotificationsRequest) (*ListNotificationsResponse, error) {
				return srv.(Server).ListNotifications(ctx, req)
			}),
	},
	Metadata: "nearmatch/matchmaker",
}
