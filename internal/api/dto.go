package api

import (
	"github.com/starford/rcsgrep/internal/history"
	"github.com/starford/rcsgrep/internal/models"
)

// FileListResponse wraps the indexed file listing.
type FileListResponse struct {
	Files []models.FileMeta `json:"files" validate:"required"`
	Total int               `json:"total" example:"42" validate:"required"`
}

// RevisionListResponse wraps the revisions of one file in walk order.
type RevisionListResponse struct {
	Path      string                `json:"path" example:"src/main.c,v" validate:"required"`
	Revisions []models.RevisionInfo `json:"revisions" validate:"required"`
}

// RevisionText is the reconstructed content of one revision (aliased from the domain layer).
type RevisionText = history.RevisionText

// GrepResponse is the grep result (aliased from the domain layer).
type GrepResponse = history.GrepResult

// SearchResult is a single index hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"src/main.c,v" validate:"required"`
	Origin  string `json:"origin" example:"1.4" validate:"required"`
	Author  string `json:"author" example:"alice"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
