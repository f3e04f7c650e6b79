package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.AuthServiceClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AuthorizationHeaderName, "Bearer "+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.AccessToken(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewAuthClient prepares a client for endpointURL. No connection is made
// until the first call. Extra dial options are appended after the defaults.
func NewAuthClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, dialOpts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	s.accessToken = strings.TrimSpace(token)
	s.mu.Unlock()
}

func (s *GRPCClient) Register(ctx context.Context, username, email, fullName, password string) (*pb.Profile, error) {
	req := &pb.RegisterRequest{Username: username, Email: email, FullName: fullName, Password: password}

	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	return resp.User, nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (s *GRPCClient) Login(ctx context.Context, username, password string) (*pb.LoginResponse, error) {
	req := &pb.LoginRequest{Username: username, Password: password}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	s.SetAccessToken(resp.AccessToken)

	return resp, nil
}

func (s *GRPCClient) Me(ctx context.Context) (*pb.Profile, error) {
	if s.AccessToken() == "" {
		return nil, ErrNotLoggedIn
	}

	resp, err := s.client.Me(ctx, &pb.MeRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Validate(ctx context.Context) (*pb.ValidateResponse, error) {
	if s.AccessToken() == "" {
		return nil, ErrNotLoggedIn
	}

	resp, err := s.client.Validate(ctx, &pb.ValidateRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.AlreadyExists:
		return ErrUserExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
