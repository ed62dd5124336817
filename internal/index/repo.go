package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/rcsgrep/internal/models"
)

// FileRow represents a row in the files table.
type FileRow struct {
	Path      string
	Checksum  string
	Head      string
	Revisions int
	UpdatedAt time.Time
}

// UpsertFile replaces everything stored for doc.Path within a transaction.
func (db *DB) UpsertFile(doc *Document) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO files (path, checksum, head, revisions, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			head       = excluded.head,
			revisions  = excluded.revisions,
			updated_at = excluded.updated_at
	`, doc.Path, doc.Checksum, doc.Head, len(doc.Revisions), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	_, _ = tx.Exec(`DELETE FROM revisions WHERE path = ?`, doc.Path)
	_, _ = tx.Exec(`DELETE FROM lines WHERE path = ?`, doc.Path)

	revStmt, err := tx.Prepare(`
		INSERT INTO revisions (path, seq, rev, parent, author, date, state, tags, branches, log)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare revision insert: %w", err)
	}
	defer revStmt.Close()
	for i, r := range doc.Revisions {
		tags, _ := json.Marshal(nonNil(r.Tags))
		branches, _ := json.Marshal(nonNil(r.Branches))
		if _, err := revStmt.Exec(doc.Path, i, r.Rev, r.Parent, r.Author, r.Date, r.State,
			string(tags), string(branches), r.Log); err != nil {
			return fmt.Errorf("index: insert revision %s: %w", r.Rev, err)
		}
	}

	lineStmt, err := tx.Prepare(`INSERT OR IGNORE INTO lines (path, origin, body) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare line insert: %w", err)
	}
	defer lineStmt.Close()
	for _, l := range doc.Lines {
		if _, err := lineStmt.Exec(doc.Path, l.Origin, l.Body); err != nil {
			return fmt.Errorf("index: insert line: %w", err)
		}
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, doc.Path, doc.Lines); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteFile removes a file with its revisions, lines and FTS entries.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM lines WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM revisions WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM files WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a file, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums maps every indexed path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListFiles returns every indexed file ordered by path.
func (db *DB) ListFiles() ([]FileRow, error) {
	rows, err := db.conn.Query(`SELECT path, checksum, head, revisions, updated_at FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: list files: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var r FileRow
		if err := rows.Scan(&r.Path, &r.Checksum, &r.Head, &r.Revisions, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Revisions returns the revisions of path in tree walk order. An unknown
// path yields an empty slice.
func (db *DB) Revisions(path string) ([]models.RevisionInfo, error) {
	rows, err := db.conn.Query(`
		SELECT rev, parent, author, date, state, tags, branches, log
		FROM revisions WHERE path = ? ORDER BY seq`, path)
	if err != nil {
		return nil, fmt.Errorf("index: revisions: %w", err)
	}
	defer rows.Close()

	var out []models.RevisionInfo
	for rows.Next() {
		var r models.RevisionInfo
		var tags, branches string
		if err := rows.Scan(&r.Rev, &r.Parent, &r.Author, &r.Date, &r.State, &tags, &branches, &r.Log); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tags), &r.Tags)
		_ = json.Unmarshal([]byte(branches), &r.Branches)
		r.Tags = nonNil(r.Tags)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
