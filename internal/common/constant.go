package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// AuthorizationHeaderName carries "Bearer <token>" on HTTP requests and,
// alternatively, in gRPC metadata.
const AuthorizationHeaderName = "authorization"

// TokenTypeBearer is the token kind reported to clients after login.
const TokenTypeBearer = "bearer"

// ServiceName identifies this service in logs, traces and health responses.
const ServiceName = "auth-service"
