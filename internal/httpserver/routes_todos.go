// internal/httpserver/routes_todos.go
//
// The five todo routes, all scoped to the authenticated user:
//   - GET    /api/todos       → list (id order, [] when none)
//   - GET    /api/todos/{id}  → one todo, or empty body on a miss
//   - POST   /api/todos       → create; id server-assigned, owner forced
//   - PUT    /api/todos/{id}  → update todo/completed in place
//   - DELETE /api/todos/{id}  → delete; responds with the deleted rows
//
// A miss (id absent, or owned by someone else) is 200 with an empty body.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// todoReq is the body for create and update. Any id or owner_id sent by the
// client is dropped on the floor.
type todoReq struct {
	Todo      string `json:"todo"`
	Completed bool   `json:"completed"`
}

// mountTodos registers the todo routes on the gated /api group.
func (s *Server) mountTodos(r chi.Router) {
	r.Route("/todos", func(r chi.Router) {
		r.Get("/", s.handleListTodos)
		r.Post("/", s.handleCreateTodo)
		r.Get("/{id}", s.handleGetTodo)
		r.Put("/{id}", s.handleUpdateTodo)
		r.Delete("/{id}", s.handleDeleteTodo)
	})
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.todos.ListByOwner(r.Context(), currentUserID(r))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.respond(w, todos, http.StatusOK)
}

func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	t, err := s.todos.Get(r.Context(), id, currentUserID(r))
	if errors.Is(err, sql.ErrNoRows) {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.respond(w, t, http.StatusOK)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var body todoReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respond(w, map[string]string{"error": "invalid json"}, http.StatusBadRequest)
		return
	}
	t, err := s.todos.Create(r.Context(), currentUserID(r), body.Todo, body.Completed)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.respond(w, t, http.StatusOK)
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var body todoReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respond(w, map[string]string{"error": "invalid json"}, http.StatusBadRequest)
		return
	}
	t, err := s.todos.Update(r.Context(), id, currentUserID(r), body.Todo, body.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.respond(w, t, http.StatusOK)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	deleted, err := s.todos.Delete(r.Context(), id, currentUserID(r))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.respond(w, deleted, http.StatusOK)
}

// handleTest mirrors the original diagnostic route under the gate.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	s.respond(w, map[string]string{
		"message": fmt.Sprintf("in this protected route, we get the user's id like so: %d", currentUserID(r)),
	}, http.StatusOK)
}

// pathID parses the {id} route parameter. A non-numeric id surfaces as a 500
// with the parse error, the same way a bad literal fails the statement in the
// original service.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.storeError(w, r, err)
		return 0, false
	}
	return id, true
}
