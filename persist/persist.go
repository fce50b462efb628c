// persist saves and loads the full entity state through the store's
// snapshot hooks. Entities land in sqlite as one JSON document per row;
// the store never sees the database.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/winsomenet/winsome/store"
)

type Saver struct {
	db    *sql.DB
	store *store.Store
}

func Open(path string, s *store.Store) (*Saver, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Saver{db: db, store: s}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users(
			name TEXT PRIMARY KEY,
			state TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS posts(
			id INTEGER PRIMARY KEY,
			state TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS comments(
			id INTEGER PRIMARY KEY,
			state TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save writes a full snapshot in one transaction, replacing the previous
// image entirely.
func (sv *Saver) Save() error {
	state := sv.store.Snapshot()
	tx, err := sv.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, table := range []string{"users", "posts", "comments"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}
	for _, u := range state.Users {
		blob, err := json.Marshal(u)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT INTO users(name, state) VALUES(?, ?)", u.Name, string(blob)); err != nil {
			return err
		}
	}
	for _, p := range state.Posts {
		blob, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT INTO posts(id, state) VALUES(?, ?)", p.ID, string(blob)); err != nil {
			return err
		}
	}
	for _, c := range state.Comments {
		blob, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT INTO comments(id, state) VALUES(?, ?)", c.ID, string(blob)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load reads the persisted image and seeds the store with it. An empty
// database leaves the store empty.
func (sv *Saver) Load() error {
	var state store.State
	rows, err := sv.db.Query("SELECT state FROM users")
	if err != nil {
		return err
	}
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			rows.Close()
			return err
		}
		var u store.UserState
		if err := json.Unmarshal([]byte(blob), &u); err != nil {
			rows.Close()
			return err
		}
		state.Users = append(state.Users, u)
	}
	rows.Close()

	rows, err = sv.db.Query("SELECT state FROM posts")
	if err != nil {
		return err
	}
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			rows.Close()
			return err
		}
		var p store.PostState
		if err := json.Unmarshal([]byte(blob), &p); err != nil {
			rows.Close()
			return err
		}
		state.Posts = append(state.Posts, p)
	}
	rows.Close()

	rows, err = sv.db.Query("SELECT state FROM comments")
	if err != nil {
		return err
	}
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			rows.Close()
			return err
		}
		var c store.CommentState
		if err := json.Unmarshal([]byte(blob), &c); err != nil {
			rows.Close()
			return err
		}
		state.Comments = append(state.Comments, c)
	}
	rows.Close()

	sv.store.Restore(state)
	return nil
}

// Run saves on the interval and once more when the context ends.
func (sv *Saver) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := sv.Save(); err != nil {
				slog.Error("final state save failed", "error", err)
			}
			return
		case <-ticker.C:
			if err := sv.Save(); err != nil {
				slog.Error("periodic state save failed", "error", err)
			}
		}
	}
}

func (sv *Saver) Close() error {
	return sv.db.Close()
}
