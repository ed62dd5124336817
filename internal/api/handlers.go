package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/rcsgrep/internal/apperr"
	"github.com/starford/rcsgrep/internal/history"
	"github.com/starford/rcsgrep/internal/metrics"
)

// Handler holds API route handlers.
type Handler struct {
	svc *history.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *history.Service) *Handler {
	return &Handler{svc: svc}
}

// writeError maps domain error kinds onto HTTP statuses. Anything unknown is
// logged and hidden behind a 500.
func writeError(w http.ResponseWriter, op, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConfig), errors.Is(err, apperr.ErrUnresolvedTag):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrFormat),
		errors.Is(err, apperr.ErrDanglingReference),
		errors.Is(err, apperr.ErrReconstruction):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &apperr.ConfigError{Field: name, Msg: "expected a boolean"}
	}
	return b, nil
}

// ListFiles handles GET /api/files.
//
//	@Summary		List indexed RCS files
//	@Tags			files
//	@Produce		json
//	@Success		200	{object}	FileListResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.Files(r.Context())
	if err != nil {
		writeError(w, "list files", "", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: files, Total: len(files)})
}

// ListRevisions handles GET /api/revisions.
//
//	@Summary		List the revisions of one file in walk order
//	@Tags			files
//	@Produce		json
//	@Param			path	query		string	true	"RCS file path"
//	@Success		200		{object}	RevisionListResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/revisions [get]
func (h *Handler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	revs, err := h.svc.Revisions(r.Context(), path)
	if err != nil {
		writeError(w, "list revisions", path, err)
		return
	}
	writeJSON(w, http.StatusOK, RevisionListResponse{Path: path, Revisions: revs})
}

// ReadRevision handles GET /api/revision.
//
//	@Summary		Reconstruct one revision with per-line provenance
//	@Tags			files
//	@Produce		json
//	@Param			path	query		string	true	"RCS file path"
//	@Param			rev		query		string	false	"Revision number, tag or branch (default head)"
//	@Success		200		{object}	RevisionText
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/revision [get]
func (h *Handler) ReadRevision(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	text, err := h.svc.ReadRevision(r.Context(), path, q.Get("rev"))
	if err != nil {
		writeError(w, "read revision", path, err)
		return
	}
	writeJSON(w, http.StatusOK, text)
}

// Grep handles GET /api/grep.
//
//	@Summary		Search every revision of one file, or of all indexed files
//	@Tags			grep
//	@Produce		json
//	@Param			pattern		query		string	true	"Regular expression, or literal with fixed=true"
//	@Param			path		query		string	false	"RCS file path; empty searches every indexed file"
//	@Param			format		query		string	false	"Field codes"	default(rlL)
//	@Param			linewraps	query		bool	false	"Join backslash-continued lines"
//	@Param			fixed		query		bool	false	"Treat pattern as a literal string"
//	@Param			icase		query		bool	false	"Ignore case"
//	@Param			rev			query		[]string	false	"Restrict to these revisions, tags or branches"
//	@Param			limit		query		int		false	"Max hits"
//	@Success		200			{object}	GrepResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/grep [get]
func (h *Handler) Grep(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pattern := q.Get("pattern")
	if pattern == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'pattern' is required"))
		return
	}
	opts := history.GrepOptions{
		Format:    q.Get("format"),
		Revisions: q["rev"],
	}
	var err error
	if opts.FollowWraps, err = boolParam(r, "linewraps"); err != nil {
		writeError(w, "grep", "", err)
		return
	}
	if opts.Fixed, err = boolParam(r, "fixed"); err != nil {
		writeError(w, "grep", "", err)
		return
	}
	if opts.IgnoreCase, err = boolParam(r, "icase"); err != nil {
		writeError(w, "grep", "", err)
		return
	}
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))

	path := q.Get("path")
	res, err := h.svc.Grep(r.Context(), path, pattern, opts)
	if err != nil {
		writeError(w, "grep", path, err)
		return
	}
	metrics.MatchesEmitted.WithLabelValues("api").Add(float64(len(res.Hits)))
	writeJSON(w, http.StatusOK, res)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search over every line ever committed
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}

	hits, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", "", err)
		return
	}
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{Path: hit.Path, Origin: hit.Origin, Author: hit.Author, Snippet: hit.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
