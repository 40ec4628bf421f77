package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/oggyb/nearmatch/internal/config"
)

// NewGRPCServer builds a gRPC server with request logging, reflection and
// every provided service registered.
func NewGRPCServer(logger *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(LoggingInterceptor(logger)))

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)
	return grpcServer
}

// StartGRPCServer boots a gRPC server and registers all provided services.
// It blocks until the listener fails or ctx is done, then stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := NewGRPCServer(logger, registrars...)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down gRPC server")
		grpcServer.GracefulStop()
	}()

	logger.Info("gRPC server listening", "addr", addr)
	return grpcServer.Serve(lis)
}

// LoggingInterceptor logs every unary call with its status code and latency.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		attrs := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
		if err != nil {
			logger.Warn("rpc failed", append(attrs, "err", err)...)
		} else {
			logger.Debug("rpc handled", attrs...)
		}
		return resp, err
	}
}
