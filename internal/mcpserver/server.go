// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Vitrine catalog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/catalog"
	"github.com/starford/vitrine/internal/filter"
	"github.com/starford/vitrine/internal/index"
	"github.com/starford/vitrine/internal/selection"
)

const (
	contractURI  = "vitrine://catalog-format"
	defaultLimit = 50
)

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp     *server.MCPServer
	catalog *catalog.Store
	idx     index.CatalogIndex
}

// New creates a new MCP server with all catalog tools registered.
func New(cat *catalog.Store, idx index.CatalogIndex) *Server {
	s := &Server{catalog: cat, idx: idx}

	s.mcp = server.NewMCPServer(
		"Vitrine",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_catalog",
		mcp.WithDescription("Search catalog records by a case-insensitive substring of title, "+
			"description or category, optionally restricted to categories. Results are newest first."),
		mcp.WithString("query", mcp.Description("Search term (empty matches everything)")),
		mcp.WithString("categories", mcp.Description("Comma-separated category keys; empty or \"all\" for no restriction")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of records to return (default 50)")),
	), s.searchCatalog)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List the catalog categories with the number of records in each."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Read one catalog record by its file identifier."),
		mcp.WithString("file_identifier", mcp.Required(), mcp.Description("File identifier of the record (the fileName field)")),
	), s.getRecord)

	s.mcp.AddTool(mcp.NewTool("get_catalog_contract",
		mcp.WithDescription("Returns the catalog document format. "+
			"Call this before producing or editing a catalog file."),
	), s.getCatalogContract)

	// Resource: catalog format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Catalog Format Contract",
			mcp.WithResourceDescription("JSON document format of the Vitrine catalog."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
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

func (s *Server) searchCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	limit := req.GetInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}

	var keys []string
	for _, k := range strings.Split(req.GetString("categories", ""), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	sel := selection.Specific(keys...)

	results := filter.Apply(s.catalog.All(), query, sel)
	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}
	out, _ := json.MarshalIndent(map[string]any{
		"total":   total,
		"records": results,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats, err := s.idx.Categories()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(cats) == 0 {
		return mcp.NewToolResultText("no categories found"), nil
	}
	out, _ := json.MarshalIndent(cats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := req.RequireString("file_identifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.idx.RecordByFile(file)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", file)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getCatalogContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CatalogFormatContract()), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     CatalogFormatContract(),
		},
	}, nil
}
