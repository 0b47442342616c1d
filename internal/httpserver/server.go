// internal/httpserver/server.go
//
// HTTP server wiring for the todos API.
// Responsibilities:
//   - Router + middleware (JSON, CORS, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", /auth/*.
//   - Gated endpoints under /api: five todo routes plus /api/test.
//   - Auth middleware resolving the Authorization token to a user id.
//
// Notes:
//   - The token is passed raw in the Authorization header, no "Bearer " prefix.
//   - Auth middleware decorates requests with the resolved user id; handlers
//     read it back from the request context, never from the body.
//   - Row-scoped misses respond 200 with an empty body, not 404.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"todoapi/internal/store"
	"todoapi/internal/token"
)

// Server bundles router, stores, and the token service.
type Server struct {
	r      *chi.Mux
	users  *store.Users
	todos  *store.Todos
	tokens *token.Service
}

// New constructs a Server, installs middleware, and registers routes.
func New(users *store.Users, todos *store.Todos, tokens *token.Service) *Server {
	s := &Server{r: chi.NewRouter(), users: users, todos: todos, tokens: tokens}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(recoverJSON)     // recover from panics with a JSON 500
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(corsFromEnv)     // env-driven CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"todoapi","endpoints":["/health","POST /auth/signup","POST /auth/signin","/api/todos"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Auth routes — open
	s.mountAuth()

	// Everything under /api requires a resolvable token
	s.r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Get("/test", s.handleTest)
		s.mountTodos(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, map[string]string{"error": "not found", "path": r.URL.Path}, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverJSON converts a panic escaping a handler into a generic JSON 500.
func recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ---------------------------- auth middleware ------------------------------

// ctxUserKey is the context key type for storing the resolved user id.
type ctxUserKey struct{}

// requireAuth enforces a resolvable token and injects the user id into the
// request context. The Authorization header carries the token as-is.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := r.Header.Get("Authorization")
			if tokenStr == "" {
				s.respond(w, map[string]string{"error": "no authorization found"}, http.StatusUnauthorized)
				return
			}
			userID, err := s.tokens.Resolve(tokenStr)
			if err != nil {
				s.respond(w, map[string]string{"error": "invalid token"}, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// currentUserID reads the id placed into context by requireAuth.
func currentUserID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxUserKey{}).(int64)
	return id
}

// ------------------------------- helpers -----------------------------------

// respond encodes resp as JSON with the given status code.
func (s *Server) respond(w http.ResponseWriter, resp any, code int) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
