package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const principalKey ctxKey = "principal"

// protected lists the methods that require a bearer token.
var protected = map[string]bool{
	pb.AuthService_Me_FullMethodName:       true,
	pb.AuthService_Validate_FullMethodName: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protected[info.FullMethod] {
		return handler(ctx, req)
	}

	token := tokenFromMetadata(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	p, err := s.guard.Authorize(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(context.WithValue(ctx, principalKey, p), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "rpc finished",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start))
	return resp, err
}

// tokenFromMetadata prefers "authorization: Bearer <t>" and falls back to
// the "access_token" key.
func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(common.AuthorizationHeaderName) {
		if t, ok := auth.BearerToken(v); ok {
			return t
		}
	}
	if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
		return values[0]
	}
	return ""
}

func principalFromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*models.Principal)
	return p, ok && p != nil
}
