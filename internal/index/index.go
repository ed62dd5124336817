package index

import "github.com/starford/rcsgrep/internal/models"

// HistoryIndex is the query and mutation surface of the index. Consumers
// depend on it rather than on *DB so they can be tested with fakes.
type HistoryIndex interface {
	UpsertFile(doc *Document) error
	DeleteFile(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	ListFiles() ([]FileRow, error)
	Revisions(path string) ([]models.RevisionInfo, error)
	Search(query string, limit int) ([]models.LineHit, error)
	Close() error
}

// Verify *DB satisfies HistoryIndex at compile time.
var _ HistoryIndex = (*DB)(nil)
