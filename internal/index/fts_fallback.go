//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/starford/rcsgrep/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on lines.body.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ string, _ []LineRow) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]models.LineHit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT l.path, l.origin, COALESCE(r.author, ''), l.body
		FROM lines l
		LEFT JOIN revisions r ON r.path = l.path AND r.rev = l.origin
		WHERE l.body LIKE ?
		ORDER BY l.path, r.seq
		LIMIT ?
	`, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []models.LineHit
	for rows.Next() {
		var h models.LineHit
		if err := rows.Scan(&h.Path, &h.Origin, &h.Author, &h.Text); err != nil {
			return nil, err
		}
		h.Snippet = h.Text
		out = append(out, h)
	}
	return out, rows.Err()
}
