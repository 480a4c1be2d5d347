package stubapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/veloracommerce/storefront-client/internal/session"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/validators"
)

// Tokens are real JWTs so clients exercising exp introspection see the
// claim; the signature is throwaway.
var stubSigningKey = []byte("stubapi-dev-secret")

type authResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	user, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || user.Password != req.Password {
		writeError(w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password"))
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: wireUser(user)})
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Email]; exists {
		s.mu.Unlock()
		writeError(w, pkgerrors.New(pkgerrors.CodeConflict, "email already registered"))
		return
	}
	user := stubUser{
		ID:       "user-" + uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	s.users[req.Email] = user
	s.mu.Unlock()

	token, err := s.issueToken(user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: wireUser(user)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		s.mu.Lock()
		delete(s.tokens, token)
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) issueToken(user stubUser) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}).SignedString(stubSigningKey)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sign session token")
	}
	s.mu.Lock()
	s.tokens[token] = user.Email
	s.mu.Unlock()
	return token, nil
}

func wireUser(user stubUser) session.User {
	return session.User{ID: user.ID, Name: user.Name, Email: user.Email, Role: "customer"}
}
