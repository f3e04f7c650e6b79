package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// UserService is the account API served over gRPC.
type UserService interface {
	Register(ctx context.Context, req services.RegisterRequest) (*services.RegisterResponse, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.TokenResponse, error)
}

// Authorizer resolves a bearer token to an active principal.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*models.Principal, error)
}

type GRPCServer struct {
	pb.UnimplementedAuthServiceServer
	address string
	users   UserService
	guard   Authorizer
	logger  logging.Logger
	health  *health.Server
}

func NewGRPCServer(a string, l logging.Logger, us UserService, guard Authorizer) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  logging.OrNop(l).With("module", "grpc_server"),
		users:   us,
		guard:   guard,
		health:  health.NewServer(),
	}
}

// NewServer builds a grpc.Server with the auth interceptor chain and the
// AuthService and health services registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	srv := grpc.NewServer(opts...)

	pb.RegisterAuthServiceServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(pb.AuthServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}
