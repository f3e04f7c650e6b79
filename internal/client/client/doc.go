// Package client talks to the auth service over gRPC.
//
// GRPCClient keeps the access token obtained by Login and attaches it to
// every outgoing call through a unary interceptor, as "authorization:
// Bearer <token>" metadata. Status codes returned by the server are mapped
// onto the sentinel errors in errors.go, so callers can use errors.Is
// instead of inspecting gRPC statuses.
//
// A token issued elsewhere (for example printed by a previous login) can be
// installed with SetAccessToken.
package client
