package mcp

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	stlcat "github.com/makerbench/stlcat/pkg"
	"github.com/makerbench/stlcat/pkg/catalog"
	pkgdb "github.com/makerbench/stlcat/pkg/db"
	"github.com/makerbench/stlcat/pkg/utils"
)

// CatalogMCPServer exposes the catalog over the Model Context Protocol
// (stdio transport), owning the database handle for its lifetime.
type CatalogMCPServer struct {
	mcpServer *server.MCPServer
	db        *sql.DB
	DbPath    string
}

// NewCatalogMCPServer opens (and, if needed, initializes) the catalog
// database at dbPath and wraps it in an MCP server. An empty dbPath uses
// the system default location.
func NewCatalogMCPServer(dbPath string, walMode bool, syncMode string) (*CatalogMCPServer, error) {
	resolvedPath, err := utils.ResolveAndEnsurePath(dbPath, utils.DefaultDBPath())
	if err != nil {
		return nil, err
	}

	s := server.NewMCPServer(
		"stlcat MCP Server",
		stlcat.Version,
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	dbConn, err := pkgdb.OpenDBConnection(resolvedPath, walMode, syncMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := pkgdb.UpgradeDB(dbConn, resolvedPath, pkgdb.TargetSchemaVersion); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to initialize/upgrade database schema for '%s': %w", resolvedPath, err)
	}
	if err := catalog.EnsureDefaultTags(context.Background(), dbConn); err != nil {
		dbConn.Close()
		return nil, err
	}

	return &CatalogMCPServer{
		mcpServer: s,
		db:        dbConn,
		DbPath:    resolvedPath,
	}, nil
}

// Start runs the stdio event loop. Make sure to register tools beforehand.
func (s *CatalogMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// DB returns the underlying *sql.DB.
func (s *CatalogMCPServer) DB() *sql.DB {
	return s.db
}

// MCPRawServer exposes the raw mcp-go server (useful for additional configuration).
func (s *CatalogMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}

// Close cleans up allocated resources.
func (s *CatalogMCPServer) Close() error {
	if s.db != nil {
		// TRUNCATE mode waits for transactions and writes the WAL back to the main DB.
		_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: WAL checkpoint failed during close: %v\n", err)
		}
		return s.db.Close()
	}
	return nil
}
