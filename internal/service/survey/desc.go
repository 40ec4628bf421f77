package survey

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/nearmatch/internal/server"
)

const ServiceName = "nearmatch.Survey"

// Server is the Survey gRPC API.
type Server interface {
	ListQuestions(context.Context, *ListQuestionsRequest) (*ListQuestionsResponse, error)
	SubmitResponses(context.Context, *SubmitResponsesRequest) (*SubmitResponsesResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		server.Unary(ServiceName, "ListQuestions",
			func(srv any, ctx context.Context, req *ListQuestionsRequest) (*ListQuestionsResponse, error) {
				return srv.(Server).ListQuestions(ctx, req)
			}),
		server.Unary(ServiceName, "SubmitResponses",
			func(srv any, ctx context.Context, req *SubmitResponsesRequest) (*SubmitResponsesResponse, error) {
				return srv.(Server).SubmitResponses(ctx, req)
			}),
	},
	Metadata: "nearmatch/survey",
}
