// Package storage defines read access to the RCS repository.
package storage

import "github.com/starford/rcsgrep/internal/models"

// Suffix marks RCS history files.
const Suffix = ",v"

// Provider is the interface for repository file access. Paths are relative
// to the repository root.
type Provider interface {
	// List returns metadata for every ,v file under dir.
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Root returns the absolute repository root.
	Root() string
}

// IsRCSFile reports whether name looks like an RCS history file.
func IsRCSFile(name string) bool {
	return len(name) > len(Suffix) && name[len(name)-len(Suffix):] == Suffix
}
