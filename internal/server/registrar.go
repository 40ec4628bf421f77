package server

import "google.golang.org/grpc"

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// DescRegistrar registers a hand-written service descriptor and its
// implementation.
type DescRegistrar struct {
	Desc *grpc.ServiceDesc
	Impl any
}

func (r DescRegistrar) Register(s *grpc.Server) {
	s.RegisterService(r.Desc, r.Impl)
}
