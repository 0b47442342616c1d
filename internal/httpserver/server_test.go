package httpserver_test

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"todoapi/internal/httpserver"
	"todoapi/internal/store"
	"todoapi/internal/token"
)

var _ = Describe("Server", func() {
	var (
		srv    *httpserver.Server
		db     *sql.DB
		tokens *token.Service
	)

	BeforeEach(func() {
		srv, db, tokens = newTestServer()
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("diagnostics", func() {
		It("answers the health check", func() {
			w := do(srv, http.MethodGet, "/health", "", nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"ok":true}`))
		})

		It("responds to CORS preflight", func() {
			w := do(srv, http.MethodOptions, "/api/todos", "", nil)
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Header().Get("Access-Control-Allow-Origin")).NotTo(BeEmpty())
		})

		It("renders unknown paths as JSON 404", func() {
			w := do(srv, http.MethodGet, "/nope", "", nil)
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"not found","path":"/nope"}`))
		})
	})

	Describe("signup and signin", func() {
		It("returns the user with a token on signup", func() {
			w := do(srv, http.MethodPost, "/auth/signup", "", map[string]string{
				"email": "jon@user.com", "password": "1234",
			})
			Expect(w.Code).To(Equal(http.StatusOK))

			var res map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &res)).To(Succeed())
			Expect(res["id"]).To(BeEquivalentTo(1))
			Expect(res["email"]).To(Equal("jon@user.com"))
			Expect(res["token"]).NotTo(BeEmpty())
		})

		It("rejects a duplicate email with 409", func() {
			signup(srv, "jon@user.com", "1234")
			w := do(srv, http.MethodPost, "/auth/signup", "", map[string]string{
				"email": "jon@user.com", "password": "5678",
			})
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"email taken"}`))
		})

		It("rejects a body without credentials", func() {
			w := do(srv, http.MethodPost, "/auth/signup", "", map[string]string{"email": "jon@user.com"})
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("signs an existing user back in", func() {
			signup(srv, "jon@user.com", "1234")
			w := do(srv, http.MethodPost, "/auth/signin", "", map[string]string{
				"email": "jon@user.com", "password": "1234",
			})
			Expect(w.Code).To(Equal(http.StatusOK))

			var res map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &res)).To(Succeed())
			Expect(res["token"]).NotTo(BeEmpty())
		})

		It("rejects a wrong password with 401", func() {
			signup(srv, "jon@user.com", "1234")
			w := do(srv, http.MethodPost, "/auth/signin", "", map[string]string{
				"email": "jon@user.com", "password": "wrong",
			})
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"invalid email or password"}`))
		})

		It("rejects an unknown email with 401", func() {
			w := do(srv, http.MethodPost, "/auth/signin", "", map[string]string{
				"email": "ghost@user.com", "password": "1234",
			})
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("auth middleware", func() {
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
			method := method
			It("returns 401 without an Authorization header on "+method, func() {
				path := "/api/todos"
				if method == http.MethodPut || method == http.MethodDelete {
					path = "/api/todos/1"
				}
				w := do(srv, method, path, "", nil)
				Expect(w.Code).To(Equal(http.StatusUnauthorized))
				Expect(w.Body.String()).To(MatchJSON(`{"error":"no authorization found"}`))
				Expect(w.Header().Get("Content-Type")).To(ContainSubstring("json"))
			})
		}

		It("returns 401 for a token it cannot resolve", func() {
			w := do(srv, http.MethodGet, "/api/todos", "garbage-token", nil)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"invalid token"}`))
		})

		It("exposes the resolved user id on /api/test", func() {
			tok := signup(srv, "jon@user.com", "1234")
			w := do(srv, http.MethodGet, "/api/test", tok, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring("1"))
		})
	})

	Describe("todo routes", func() {
		var tok string

		// Mirror the original fixtures: one pre-existing user owning three
		// todos, then the caller signs up as user 2.
		BeforeEach(func() {
			_, err := db.Exec(`INSERT INTO users (email, password_hash) VALUES ('other@user.com', 'x')`)
			Expect(err).NotTo(HaveOccurred())
			_, err = db.Exec(`INSERT INTO todos (todo, completed, owner_id) VALUES
				('first', 0, 1), ('second', 1, 1), ('third', 0, 1)`)
			Expect(err).NotTo(HaveOccurred())

			tok = signup(srv, "jon@user.com", "1234")
		})

		It("replays the original fixture flow", func() {
			By("creating a new todo with a server-assigned id")
			w := do(srv, http.MethodPost, "/api/todos", tok, map[string]any{
				"id": 99, "todo": "Make these fucking tests work", "completed": false, "owner_id": 7,
			})
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"id":4,"todo":"Make these fucking tests work","completed":false,"owner_id":2}`))

			By("listing only the caller's todos")
			w = do(srv, http.MethodGet, "/api/todos", tok, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`[{"id":4,"todo":"Make these fucking tests work","completed":false,"owner_id":2}]`))

			By("fetching the todo by id")
			w = do(srv, http.MethodGet, "/api/todos/4", tok, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"id":4,"todo":"Make these fucking tests work","completed":false,"owner_id":2}`))

			By("returning an empty body for an id owned by someone else")
			w = do(srv, http.MethodGet, "/api/todos/3", tok, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.Len()).To(BeZero())
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("json"))

			By("merging updates onto the unchanged identity fields")
			w = do(srv, http.MethodPut, "/api/todos/4", tok, map[string]any{
				"todo": "Made these fine tests work", "completed": true,
			})
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"id":4,"todo":"Made these fine tests work","completed":true,"owner_id":2}`))

			By("deleting and then finding nothing")
			w = do(srv, http.MethodDelete, "/api/todos/4", tok, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`[{"id":4,"todo":"Made these fine tests work","completed":true,"owner_id":2}]`))

			w = do(srv, http.MethodGet, "/api/todos/4", tok, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.Len()).To(BeZero())

			w = do(srv, http.MethodGet, "/api/todos", tok, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`[]`))
		})

		It("returns an empty array for a user with no todos", func() {
			w := do(srv, http.MethodGet, "/api/todos", tok, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`[]`))
		})

		It("never updates another user's todo", func() {
			w := do(srv, http.MethodPut, "/api/todos/1", tok, map[string]any{
				"todo": "hijacked", "completed": true,
			})
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.Len()).To(BeZero())

			var text string
			Expect(db.QueryRow(`SELECT todo FROM todos WHERE id=1`).Scan(&text)).To(Succeed())
			Expect(text).To(Equal("first"))
		})

		It("silently ignores deleting another user's todo", func() {
			w := do(srv, http.MethodDelete, "/api/todos/1", tok, nil)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`[]`))

			var n int
			Expect(db.QueryRow(`SELECT COUNT(1) FROM todos`).Scan(&n)).To(Succeed())
			Expect(n).To(Equal(3))
		})
	})

	Describe("store failures", func() {
		var mock sqlmock.Sqlmock

		BeforeEach(func() {
			mockDB, m, err := sqlmock.New()
			Expect(err).NotTo(HaveOccurred())
			mock = m
			DeferCleanup(func() { mockDB.Close() })

			srv = httpserver.New(store.NewUsers(mockDB), store.NewTodos(mockDB), tokens)
		})

		It("reports a failed statement as 500 with the message", func() {
			tok, err := tokens.Issue(1)
			Expect(err).NotTo(HaveOccurred())

			mock.ExpectQuery(`SELECT .+ FROM todos WHERE owner_id=.+`).
				WillReturnError(errors.New("disk I/O error"))

			w := do(srv, http.MethodGet, "/api/todos", tok, nil)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"disk I/O error"}`))
			Expect(mock.ExpectationsWereMet()).To(Succeed())
		})
	})
})
