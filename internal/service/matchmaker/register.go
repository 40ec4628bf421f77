package matchmaker

import (
	"google.golang.org/grpc"

	"github.com/oggyb/nearmatch/internal/app"
	"github.com/oggyb/nearmatch/internal/matching"
)

// Registrar ties the Matchmaker service into the gRPC server
type Registrar struct {
	appCtx  *app.AppContext
	builder *matching.PayloadBuilder
}

// NewRegistrar creates a new Registrar for the Matchmaker service
func NewRegistrar(appCtx *app.AppContext, builder *matching.PayloadBuilder) *Registrar {
	return &Registrar{appCtx: appCtx, builder: builder}
}

// Register attaches the Matchmaker service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, NewMatchmakerService(r.appCtx, r.builder))
}
