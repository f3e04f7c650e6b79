package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request", "username", req.Username)

	result, err := s.users.Register(ctx, services.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		s.logger.Warn(ctx, "Registration failed", "username", req.Username, "error", err)
		return nil, toStatus(err)
	}

	return &pb.RegisterResponse{Message: result.Message, User: toProfile(result.Profile)}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	tokens, err := s.users.Login(ctx, services.LoginRequest{Username: req.Username, Password: req.Password})
	if err != nil {
		return nil, toStatus(err)
	}

	return &pb.LoginResponse{
		AccessToken: tokens.AccessToken,
		TokenType:   tokens.TokenType,
		ExpiresIn:   tokens.ExpiresIn,
	}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *pb.MeRequest) (*pb.Profile, error) {
	p, ok := principalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return toProfile(p.Profile()), nil
}

func (s *GRPCServer) Validate(ctx context.Context, _ *pb.ValidateRequest) (*pb.ValidateResponse, error) {
	p, ok := principalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return &pb.ValidateResponse{Valid: true, User: toProfile(p.Profile())}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK"}, nil
}

func toProfile(p models.Profile) *pb.Profile {
	return &pb.Profile{
		Username: p.Username,
		Email:    p.Email,
		FullName: p.FullName,
		Active:   p.Active,
	}
}
