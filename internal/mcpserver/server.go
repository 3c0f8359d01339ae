// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the dealership document workflow as tools over stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Sai2266/dealership-platform/internal/docrepo"
	"github.com/Sai2266/dealership-platform/internal/index"
	"github.com/Sai2266/dealership-platform/internal/uploader"
)

// Server wraps the MCP server with document tools.
type Server struct {
	mcp   *server.MCPServer
	docs  *docrepo.Repository
	idx   index.DocIndex
	coord *uploader.Coordinator
}

// New creates an MCP server with all document tools registered.
func New(docs *docrepo.Repository, idx index.DocIndex, coord *uploader.Coordinator) *Server {
	s := &Server{docs: docs, idx: idx, coord: coord}

	s.mcp = server.NewMCPServer(
		"DealershipDocs",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the dealer's uploaded sale documents with status and upload time."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Fetch the OCR-extracted fields (VIN, buyer, seller, amounts) and notes for one document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Numeric document id")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("save_notes",
		mcp.WithDescription("Replace the free-text notes on a document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Numeric document id")),
		mcp.WithString("notes", mcp.Required(), mcp.Description("New notes text")),
	), s.saveNotes)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Search the local document cache by filename, VIN, buyer, seller, document type, or notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("upload_document",
		mcp.WithDescription("Upload one local file (pdf, jpg, jpeg, png) as a sale document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Local file path")),
	), s.uploadDocument)

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

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(docs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.docs.Detail(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := req.RequireString("notes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.docs.SaveNotes(ctx, id, notes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("notes saved for document %d", id)), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.idx.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	var lines []string
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("#%d %s [%s] %s", r.ID, r.OriginalFilename, r.Status, r.Snippet))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) uploadDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.coord.Select([]string{path}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := s.coord.Submit(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result.Message), nil
}

func requireID(req mcp.CallToolRequest) (int, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("id must be numeric: %q", raw)
	}
	return id, nil
}
