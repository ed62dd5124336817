//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/rcsgrep/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS lines_fts USING fts5(
			path UNINDEXED,
			origin UNINDEXED,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path string, lines []LineRow) error {
	_, _ = tx.Exec(`DELETE FROM lines_fts WHERE path = ?`, path)
	stmt, err := tx.Prepare(`INSERT INTO lines_fts (path, origin, body) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare fts insert: %w", err)
	}
	defer stmt.Close()
	for _, l := range lines {
		if _, err := stmt.Exec(path, l.Origin, l.Body); err != nil {
			return fmt.Errorf("index: upsert fts: %w", err)
		}
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM lines_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search and returns matching lines with snippets.
func (db *DB) Search(query string, limit int) ([]models.LineHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.path,
		       f.origin,
		       COALESCE(r.author, ''),
		       f.body,
		       snippet(lines_fts, 2, '<b>', '</b>', '...', 32)
		FROM lines_fts f
		LEFT JOIN revisions r ON r.path = f.path AND r.rev = f.origin
		WHERE lines_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []models.LineHit
	for rows.Next() {
		var h models.LineHit
		if err := rows.Scan(&h.Path, &h.Origin, &h.Author, &h.Text, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
