package store

import (
	"context"
	"database/sql"
)

// Todo is a single task record owned by exactly one user.
type Todo struct {
	ID        int64  `json:"id"`
	Todo      string `json:"todo"`
	Completed bool   `json:"completed"`
	OwnerID   int64  `json:"owner_id"`
}

// Todos wraps todo queries over the shared DB handle. Every read and write
// is filtered by owner_id; a todo is only ever visible to its owner.
type Todos struct{ db *sql.DB }

func NewTodos(db *sql.DB) *Todos { return &Todos{db: db} }

// ListByOwner returns all todos for a user in id order. Empty slice, never
// nil, so the handler renders [] rather than null.
func (s *Todos) ListByOwner(ctx context.Context, ownerID int64) ([]Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, todo, completed, owner_id FROM todos WHERE owner_id=? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Todo{}
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.Todo, &t.Completed, &t.OwnerID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get loads one todo scoped to its owner; sql.ErrNoRows when no match
// (including ids owned by someone else).
func (s *Todos) Get(ctx context.Context, id, ownerID int64) (Todo, error) {
	var t Todo
	err := s.db.QueryRowContext(ctx,
		`SELECT id, todo, completed, owner_id FROM todos WHERE id=? AND owner_id=?`, id, ownerID,
	).Scan(&t.ID, &t.Todo, &t.Completed, &t.OwnerID)
	return t, err
}

// Create inserts a row for the owner and returns it with the generated id.
func (s *Todos) Create(ctx context.Context, ownerID int64, todo string, completed bool) (Todo, error) {
	var t Todo
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO todos (todo, completed, owner_id) VALUES (?, ?, ?)
		 RETURNING id, todo, completed, owner_id`,
		todo, completed, ownerID,
	).Scan(&t.ID, &t.Todo, &t.Completed, &t.OwnerID)
	return t, err
}

// Update rewrites todo/completed in place; id and owner_id stay as stored.
// sql.ErrNoRows when the id does not exist for this owner.
func (s *Todos) Update(ctx context.Context, id, ownerID int64, todo string, completed bool) (Todo, error) {
	var t Todo
	err := s.db.QueryRowContext(ctx,
		`UPDATE todos SET todo=?, completed=? WHERE id=? AND owner_id=?
		 RETURNING id, todo, completed, owner_id`,
		todo, completed, id, ownerID,
	).Scan(&t.ID, &t.Todo, &t.Completed, &t.OwnerID)
	return t, err
}

// Delete removes the row if the owner matches and returns the deleted rows.
// A miss is not an error; the result is just empty.
func (s *Todos) Delete(ctx context.Context, id, ownerID int64) ([]Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`DELETE FROM todos WHERE id=? AND owner_id=? RETURNING id, todo, completed, owner_id`,
		id, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Todo{}
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.Todo, &t.Completed, &t.OwnerID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
