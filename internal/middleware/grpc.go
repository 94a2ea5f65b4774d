package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// GRPCLogging logs one line per unary call on the gRPC port.
func GRPCLogging(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		remote := "unknown"
		if p, ok := peer.FromContext(ctx); ok {
			remote = p.Addr.String()
		}
		ev := log.Debug()
		if err != nil {
			ev = log.Warn().Err(err)
		}
		ev.Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Str("remote", remote).
			Dur("duration", time.Since(start)).
			Msg("grpc call")
		return resp, err
	}
}
