package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// UserService is the account API served over HTTP.
type UserService interface {
	Register(ctx context.Context, req services.RegisterRequest) (*services.RegisterResponse, error)
	Login(ctx context.Context, req services.LoginRequest) (*services.TokenResponse, error)
	Me(ctx context.Context, token string) (*models.Profile, error)
	Validate(ctx context.Context, token string) (*services.Validation, error)
}

const maxBodyBytes = 1 << 16

// login accepts an OAuth2 password form or a JSON body.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid form body")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	default:
		if err := decodeJSON(w, r, &req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	if req.Username == "" || req.Password == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "username and password are required")
		return
	}

	s.logger.Info(r.Context(), "Login attempt", "username", req.Username)

	tokens, err := s.users.Login(r.Context(), req)
	if err != nil {
		s.logger.Warn(r.Context(), "Login failed", "username", req.Username)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.users.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(w, r)
	if !ok {
		return
	}

	profile, err := s.users.Me(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(w, r)
	if !ok {
		return
	}

	v, err := s.users.Validate(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, v)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": common.ServiceName,
	})
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Auth Service is running",
		"version": s.version,
		"service": common.ServiceName,
	})
}

// bearer writes a 401 and reports false when the request carries no
// bearer token.
func bearer(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return "", false
	}
	return token, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
