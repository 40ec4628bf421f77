package account

import (
	"google.golang.org/grpc"

	"github.com/oggyb/nearmatch/internal/app"
)

// Registrar ties the Account service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s *grpc.Server) {
	s.RegisterService(&ServiceDesc, NewAccountService(r.appCtx))
}
