// internal/httpserver/routes_auth.go
//
// Authentication routes: POST /auth/signup and POST /auth/signin.
// Both take {email, password} and answer with the user plus a bearer token
// for the Authorization header.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jellydator/validation"
	"github.com/jellydator/validation/is"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"todoapi/internal/store"
)

// authReq is the body for signup and signin.
type authReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a authReq) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Email, validation.Required, is.Email),
		validation.Field(&a.Password, validation.Required),
	)
}

// authRes echoes the user with the freshly issued token.
type authRes struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// mountAuth registers the open authentication routes.
func (s *Server) mountAuth() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/signin", s.handleSignin)
}

// handleSignup hashes the password, creates the user, and issues a token.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body authReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respond(w, map[string]string{"error": "invalid json"}, http.StatusBadRequest)
		return
	}
	if err := body.Validate(); err != nil {
		s.respond(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	u, err := s.users.Create(r.Context(), body.Email, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			s.respond(w, map[string]string{"error": "email taken"}, http.StatusConflict)
			return
		}
		s.storeError(w, r, err)
		return
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.respond(w, authRes{ID: u.ID, Email: u.Email, Token: tok}, http.StatusOK)
}

// handleSignin verifies credentials and issues a token.
func (s *Server) handleSignin(w http.ResponseWriter, r *http.Request) {
	var body authReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respond(w, map[string]string{"error": "invalid json"}, http.StatusBadRequest)
		return
	}
	if err := body.Validate(); err != nil {
		s.respond(w, map[string]string{"error": err.Error()}, http.StatusBadRequest)
		return
	}

	u, err := s.users.ByEmail(r.Context(), body.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.storeError(w, r, err)
		return
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.Password)) != nil {
		s.respond(w, map[string]string{"error": "invalid email or password"}, http.StatusUnauthorized)
		return
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.respond(w, authRes{ID: u.ID, Email: u.Email, Token: tok}, http.StatusOK)
}

// storeError logs and reports a failed statement as a 500 with the
// underlying message.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("path", r.URL.Path).Str("method", r.Method).Msg("store failure")
	s.respond(w, map[string]string{"error": err.Error()}, http.StatusInternalServerError)
}
