package relay

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"

	"synapse/internal/note"
)

const schemaVersion = 2

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	path TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	title_key TEXT NOT NULL,
	content TEXT NOT NULL,
	updated INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS notes_by_title_key ON notes(title_key);
`

// Index is the sqlite listing cache over the note folder. Listings are
// served from here so a GET never walks the filesystem; the store and the
// watcher keep it current.
type Index struct {
	db *sql.DB
}

func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &Index{db: db}, nil
}

func (i *Index) Close() error {
	if i.db == nil {
		return nil
	}
	return i.db.Close()
}

// Init applies the schema and rebuilds from the folder. A version bump
// recreates the notes table so column changes take effect; the folder is
// the source of truth, so dropping the cache loses nothing.
func (i *Index) Init(ctx context.Context, store *Store) error {
	if _, err := i.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}
	version, err := i.version(ctx)
	if err != nil {
		return err
	}
	if version != schemaVersion {
		if _, err := i.db.ExecContext(ctx, "DROP TABLE IF EXISTS notes"); err != nil {
			return err
		}
		if _, err := i.db.ExecContext(ctx, schemaSQL); err != nil {
			return err
		}
		if err := i.setVersion(ctx, schemaVersion); err != nil {
			return err
		}
	}
	return i.Rebuild(ctx, store)
}

func (i *Index) version(ctx context.Context) (int, error) {
	var v int
	err := i.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (i *Index) setVersion(ctx context.Context, v int) error {
	if _, err := i.db.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := i.db.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", v)
	return err
}

// Rebuild replaces the whole table with the folder's current contents.
func (i *Index) Rebuild(ctx context.Context, store *Store) error {
	notes, err := store.List()
	if err != nil {
		return err
	}
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notes"); err != nil {
		return err
	}
	for _, n := range notes {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO notes(path, title, title_key, content, updated) VALUES(?, ?, ?, ?, ?)",
			n.ID, n.Title, note.Key(n.Title), n.Content, n.LastModified); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Put upserts one note row keyed by path. The title key is computed here
// rather than in SQL; sqlite's lower() only folds ASCII.
func (i *Index) Put(ctx context.Context, n note.Note) error {
	_, err := i.db.ExecContext(ctx, `
INSERT INTO notes(path, title, title_key, content, updated) VALUES(?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET title = excluded.title,
	title_key = excluded.title_key, content = excluded.content,
	updated = excluded.updated`,
		n.ID, n.Title, note.Key(n.Title), n.Content, n.LastModified)
	return err
}

// RemoveByTitle drops every row matching a title key.
func (i *Index) RemoveByTitle(ctx context.Context, title string) error {
	_, err := i.db.ExecContext(ctx,
		"DELETE FROM notes WHERE title_key = ?", note.Key(title))
	return err
}

// List returns all indexed notes ordered by title.
func (i *Index) List(ctx context.Context) ([]note.Note, error) {
	rows, err := i.db.QueryContext(ctx,
		"SELECT path, title, content, updated FROM notes ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []note.Note{}
	for rows.Next() {
		var n note.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.LastModified); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
