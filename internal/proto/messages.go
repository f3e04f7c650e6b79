// Package proto defines the AuthService wire contract: request and response
// messages, the gRPC service descriptor and the JSON codec the service is
// carried with.
package proto

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string   `json:"message"`
	User    *Profile `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type MeRequest struct{}

type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Active   bool   `json:"active"`
}

type ValidateRequest struct{}

type ValidateResponse struct {
	Valid bool     `json:"valid"`
	User  *Profile `json:"user"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
