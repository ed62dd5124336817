package index

import (
	"github.com/starford/rcsgrep/internal/checksum"
	"github.com/starford/rcsgrep/internal/grep"
	"github.com/starford/rcsgrep/internal/models"
	"github.com/starford/rcsgrep/internal/rcs"
)

// LineRow is one distinct line together with the revision that introduced it.
type LineRow struct {
	Origin string
	Body   string
}

// Document is everything the index stores for one file.
type Document struct {
	Path      string
	Checksum  string
	Head      string
	Revisions []models.RevisionInfo // tree walk order
	Lines     []LineRow
}

// BuildDocument parses data and reconstructs every revision to collect the
// lines each one introduced.
func BuildDocument(path string, data []byte) (*Document, error) {
	f, err := rcs.Parse(data)
	if err != nil {
		return nil, err
	}
	e, err := grep.NewEngine(f, path)
	if err != nil {
		return nil, err
	}
	tree := e.Tree()
	doc := &Document{
		Path:     path,
		Checksum: checksum.Sum(data),
		Head:     tree.Head().String(),
	}

	seen := make(map[LineRow]bool)
	for _, n := range tree.Walk() {
		r, _ := tree.Rev(n)
		doc.Revisions = append(doc.Revisions, RevisionInfo(r))

		_, lines, err := e.Text(n.String())
		if err != nil {
			return nil, err
		}
		for _, l := range lines {
			row := LineRow{Origin: l.Origin.String(), Body: l.Text}
			if !seen[row] {
				seen[row] = true
				doc.Lines = append(doc.Lines, row)
			}
		}
	}
	return doc, nil
}

// RevisionInfo converts a tree node into its catalogue record.
func RevisionInfo(r *rcs.Revision) models.RevisionInfo {
	info := models.RevisionInfo{
		Rev:    r.Rev.String(),
		Parent: r.Parent.String(),
		Author: r.Author,
		Date:   r.Date.Time,
		State:  r.State,
		Tags:   append([]string{}, r.Tags...),
		Log:    r.Log,
	}
	for _, b := range r.Branches {
		info.Branches = append(info.Branches, b.String())
	}
	return info
}
