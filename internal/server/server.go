package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/submission-intake/internal/common"
)

// MaxMessageBytes bounds request size; an .eml with several PDFs base64-encoded fits well under it.
const MaxMessageBytes = 128 << 20

// NewGRPCServer builds a server with IntakeService, health and reflection registered.
func NewGRPCServer(svc IntakeServer, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(RequestInterceptor(logger)),
		grpc.MaxRecvMsgSize(MaxMessageBytes),
		grpc.MaxSendMsgSize(MaxMessageBytes),
	)
	RegisterIntakeServer(gs, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	// Reflection for grpcurl
	reflection.Register(gs)
	return gs, hs
}

// RequestInterceptor tags each call with a request id (x-request-id metadata, else a new UUID)
// and a scoped logger, and logs its outcome.
func RequestInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		rid := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				rid = v[0]
			}
		}
		if rid == "" {
			rid = uuid.New().String()
		}
		log := logger.With("req_id", rid, "method", info.FullMethod)
		ctx = common.WithLogger(common.WithRequestID(ctx, rid), log)

		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("grpc.request.done",
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
