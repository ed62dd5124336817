// Package models defines the records shared by the index, service and API layers.
package models

import "time"

// FileMeta describes one RCS file in the repository.
type FileMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Head      string    `json:"head,omitempty"`
	Revisions int       `json:"revisions,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RevisionInfo is the metadata of one revision.
type RevisionInfo struct {
	Rev      string    `json:"rev"`
	Parent   string    `json:"parent,omitempty"`
	Author   string    `json:"author"`
	Date     time.Time `json:"date"`
	State    string    `json:"state,omitempty"`
	Tags     []string  `json:"tags"`
	Branches []string  `json:"branches,omitempty"`
	Log      string    `json:"log"`
}

// LineHit is an indexed line found by full-text search, attributed to the
// revision that introduced it.
type LineHit struct {
	Path    string `json:"path"`
	Origin  string `json:"origin"`
	Author  string `json:"author"`
	Text    string `json:"text"`
	Snippet string `json:"snippet,omitempty"`
}
