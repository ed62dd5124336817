// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes RCS history tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/rcsgrep/internal/apperr"
	"github.com/starford/rcsgrep/internal/grep"
	"github.com/starford/rcsgrep/internal/history"
	"github.com/starford/rcsgrep/internal/metrics"
)

// Server wraps the MCP server with rcsgrep tools.
type Server struct {
	mcp *server.MCPServer
	svc *history.Service
}

// New creates a new MCP server with all rcsgrep tools registered.
func New(svc *history.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"rcsgrep",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("grep_history",
		mcp.WithDescription("Search every revision of an RCS file for lines matching a pattern. "+
			"Each hit is attributed to the revision that introduced the line. "+
			"See the "+FormatCodesURI+" resource for the format codes."),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("Regular expression (RE2), or a literal with fixed=true")),
		mcp.WithString("path", mcp.Description("RCS file path (e.g. src/main.c,v); empty searches every indexed file")),
		mcp.WithString("format", mcp.Description("Field codes, default "+grep.DefaultFormat)),
		mcp.WithBoolean("fixed", mcp.Description("Treat pattern as a literal string")),
		mcp.WithBoolean("ignore_case", mcp.Description("Match case-insensitively")),
		mcp.WithBoolean("linewraps", mcp.Description("Join backslash-continued lines before matching")),
		mcp.WithArray("revisions", mcp.WithStringItems(), mcp.Description("Restrict to these revision numbers, tags or branches")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits")),
	), s.grepHistory)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List the indexed RCS files with their head revision and revision count."),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("list_revisions",
		mcp.WithDescription("List the revisions of an RCS file in search order, with author, date, tags and log."),
		mcp.WithString("path", mcp.Required(), mcp.Description("RCS file path")),
	), s.listRevisions)

	s.mcp.AddTool(mcp.NewTool("read_revision",
		mcp.WithDescription("Reconstruct the full text of one revision, with the revision that introduced each line."),
		mcp.WithString("path", mcp.Required(), mcp.Description("RCS file path")),
		mcp.WithString("rev", mcp.Description("Revision number, tag or branch; empty for head")),
	), s.readRevision)

	s.mcp.AddTool(mcp.NewTool("search_history",
		mcp.WithDescription("Full-text search over every line ever committed to any indexed file."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchHistory)

	s.mcp.AddResource(
		mcp.NewResource(FormatCodesURI, "Grep Format Codes",
			mcp.WithResourceDescription("Field codes accepted by grep_history and how hits are attributed."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatCodes,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(path string, err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) grepHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern, err := req.RequireString("pattern")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := req.GetString("path", "")
	res, err := s.svc.Grep(ctx, path, pattern, history.GrepOptions{
		Format:      req.GetString("format", ""),
		Fixed:       req.GetBool("fixed", false),
		IgnoreCase:  req.GetBool("ignore_case", false),
		FollowWraps: req.GetBool("linewraps", false),
		Revisions:   req.GetStringSlice("revisions", nil),
		Limit:       req.GetInt("limit", 0),
	})
	if err != nil {
		return errorResult(path, err), nil
	}
	metrics.MatchesEmitted.WithLabelValues("mcp").Add(float64(len(res.Hits)))
	return jsonResult(res)
}

func (s *Server) listFiles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.svc.Files(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(files)
}

func (s *Server) listRevisions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	revs, err := s.svc.Revisions(ctx, path)
	if err != nil {
		return errorResult(path, err), nil
	}
	return jsonResult(revs)
}

func (s *Server) readRevision(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.svc.ReadRevision(ctx, path, req.GetString("rev", ""))
	if err != nil {
		return errorResult(path, err), nil
	}
	return jsonResult(text)
}

func (s *Server) searchHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hits)
}

func (s *Server) readFormatCodes(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatCodesURI,
			MIMEType: "text/markdown",
			Text:     FormatCodes,
		},
	}, nil
}
