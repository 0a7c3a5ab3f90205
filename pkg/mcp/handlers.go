package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/makerbench/stlcat/pkg/catalog"
)

// RegisterPingTool registers the simple ping tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the stlcat MCP server is alive."),
	)
	s.AddTool(pingTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("pong_stlcat"), nil
	})
}

// RegisterAddEntryTool registers the add_entry tool.
func RegisterAddEntryTool(s *server.MCPServer, db *sql.DB) {
	addEntryTool := mcp.NewTool("add_entry",
		mcp.WithDescription("Adds a model file to the catalog, or replaces the entry if the path is already cataloged."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the main STL file.")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name for the catalog entry.")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated list of tags.")),
		mcp.WithString("related_files", mcp.Description("Optional comma-separated list of additional part files for a multi-part model.")),
	)
	s.AddTool(addEntryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filePath, pathOk := request.Params.Arguments["file_path"].(string)
		name, nameOk := request.Params.Arguments["name"].(string)
		tagsStr, _ := request.Params.Arguments["tags"].(string)
		relatedStr, _ := request.Params.Arguments["related_files"].(string)

		if !pathOk || filePath == "" {
			return mcp.NewToolResultError("'file_path' parameter is required and must be a non-empty string."), nil
		}
		if !nameOk || name == "" {
			return mcp.NewToolResultError("'name' parameter is required and must be a non-empty string."), nil
		}

		entry, err := catalog.UpsertEntry(ctx, db, uuid.Nil, filePath, splitCommaList(relatedStr), name, splitCommaList(tagsStr))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to add entry: %v", err)), nil
		}

		jsonResult, err := json.Marshal(entry)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize entry to JSON: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// RegisterGetEntryTool registers the get_entry tool.
func RegisterGetEntryTool(s *server.MCPServer, db *sql.DB) {
	getEntryTool := mcp.NewTool("get_entry",
		mcp.WithDescription("Retrieves an entry with its tags and related files by id or by file path."),
		mcp.WithString("id", mcp.Description("Entry id (UUID). Either id or file_path must be provided.")),
		mcp.WithString("file_path", mcp.Description("Main file path of the entry.")),
	)
	s.AddTool(getEntryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		idStr, _ := request.Params.Arguments["id"].(string)
		filePath, _ := request.Params.Arguments["file_path"].(string)

		var (
			entryID uuid.UUID
			err     error
		)
		switch {
		case idStr != "":
			entryID, err = uuid.Parse(idStr)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Invalid entry id '%s': %v", idStr, err)), nil
			}
		case filePath != "":
			entry, err := catalog.GetEntryByPath(ctx, db, filePath)
			if errors.Is(err, catalog.ErrEntryNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("No entry cataloged for path '%s'.", filePath)), nil
			}
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Error resolving entry by path: %v", err)), nil
			}
			entryID = entry.ID
		default:
			return mcp.NewToolResultError("Either 'id' or 'file_path' must be provided."), nil
		}

		details, err := catalog.GetEntryDetails(ctx, db, entryID)
		if errors.Is(err, catalog.ErrEntryNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Entry '%s' not found.", entryID)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get entry: %v", err)), nil
		}

		jsonResult, err := json.Marshal(details)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize entry to JSON: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// RegisterListEntriesTool registers the list_entries tool.
func RegisterListEntriesTool(s *server.MCPServer, db *sql.DB) {
	listEntriesTool := mcp.NewTool("list_entries",
		mcp.WithDescription("Lists catalog entries ordered by name, optionally filtered by a search term matched against entry names and tag names."),
		mcp.WithString("search", mcp.Description("Optional case-insensitive substring filter.")),
	)
	s.AddTool(listEntriesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		searchTerm, _ := request.Params.Arguments["search"].(string)

		entries, err := catalog.ListEntries(ctx, db, searchTerm)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list entries: %v", err)), nil
		}

		if len(entries) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}

		jsonResult, err := json.Marshal(entries)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize entries to JSON: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// RegisterUpdateEntryTool registers the update_entry tool.
func RegisterUpdateEntryTool(s *server.MCPServer, db *sql.DB) {
	updateEntryTool := mcp.NewTool("update_entry",
		mcp.WithDescription("Fully replaces an existing entry's fields, tag set, and related-file set."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id (UUID).")),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the main STL file.")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name for the catalog entry.")),
		mcp.WithString("tags", mcp.Description("Comma-separated replacement tag list; omit to clear all tags.")),
		mcp.WithString("related_files", mcp.Description("Comma-separated replacement related-file list; omit to clear.")),
	)
	s.AddTool(updateEntryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		idStr, idOk := request.Params.Arguments["id"].(string)
		filePath, _ := request.Params.Arguments["file_path"].(string)
		name, _ := request.Params.Arguments["name"].(string)
		tagsStr, _ := request.Params.Arguments["tags"].(string)
		relatedStr, _ := request.Params.Arguments["related_files"].(string)

		if !idOk || idStr == "" {
			return mcp.NewToolResultError("'id' parameter is required."), nil
		}
		entryID, err := uuid.Parse(idStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid entry id '%s': %v", idStr, err)), nil
		}

		entry, err := catalog.UpsertEntry(ctx, db, entryID, filePath, splitCommaList(relatedStr), name, splitCommaList(tagsStr))
		if errors.Is(err, catalog.ErrEntryNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Entry '%s' not found.", entryID)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update entry: %v", err)), nil
		}

		jsonResult, err := json.Marshal(entry)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize entry to JSON: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// RegisterDeleteEntriesTool registers the delete_entries tool.
func RegisterDeleteEntriesTool(s *server.MCPServer, db *sql.DB) {
	deleteEntriesTool := mcp.NewTool("delete_entries",
		mcp.WithDescription("Deletes one or more entries (and their tag links and related files) atomically."),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Comma-separated list of entry ids (UUIDs).")),
	)
	s.AddTool(deleteEntriesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		idsStr, idsOk := request.Params.Arguments["ids"].(string)
		if !idsOk || idsStr == "" {
			return mcp.NewToolResultError("'ids' parameter is required."), nil
		}

		var entryIDs []uuid.UUID
		for _, idStr := range splitCommaList(idsStr) {
			entryID, err := uuid.Parse(idStr)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Invalid entry id '%s': %v", idStr, err)), nil
			}
			entryIDs = append(entryIDs, entryID)
		}

		if err := catalog.DeleteEntries(ctx, db, entryIDs); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete entries: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted %d entries.", len(entryIDs))), nil
	})
}

// RegisterListTagsTool registers the list_tags tool.
func RegisterListTagsTool(s *server.MCPServer, db *sql.DB) {
	listTagsTool := mcp.NewTool("list_tags",
		mcp.WithDescription("Lists all tag names, alphabetically sorted."),
	)
	s.AddTool(listTagsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := catalog.ListTagNames(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list tags: %v", err)), nil
		}

		if len(names) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}

		jsonResult, err := json.Marshal(names)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize tags to JSON: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// RegisterAddTagTool registers the add_tag tool.
func RegisterAddTagTool(s *server.MCPServer, db *sql.DB) {
	addTagTool := mcp.NewTool("add_tag",
		mcp.WithDescription("Adds a tag. Adding an existing tag is a no-op."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tag name.")),
	)
	s.AddTool(addTagTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, nameOk := request.Params.Arguments["name"].(string)
		if !nameOk || name == "" {
			return mcp.NewToolResultError("'name' parameter is required and must be a non-empty string."), nil
		}

		if err := catalog.AddTag(ctx, db, name); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to add tag: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Tag '%s' is present.", name)), nil
	})
}

// RegisterRenameTagTool registers the rename_tag tool.
func RegisterRenameTagTool(s *server.MCPServer, db *sql.DB) {
	renameTagTool := mcp.NewTool("rename_tag",
		mcp.WithDescription("Renames a tag. If the new name already exists the two tags are merged without creating duplicate links."),
		mcp.WithString("old_name", mcp.Required(), mcp.Description("Current tag name.")),
		mcp.WithString("new_name", mcp.Required(), mcp.Description("New tag name.")),
	)
	s.AddTool(renameTagTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		oldName, oldOk := request.Params.Arguments["old_name"].(string)
		newName, newOk := request.Params.Arguments["new_name"].(string)
		if !oldOk || oldName == "" || !newOk || newName == "" {
			return mcp.NewToolResultError("'old_name' and 'new_name' parameters are required."), nil
		}

		err := catalog.RenameTag(ctx, db, oldName, newName)
		if errors.Is(err, catalog.ErrTagNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Tag '%s' not found.", oldName)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to rename tag: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Tag '%s' renamed to '%s'.", oldName, newName)), nil
	})
}

// RegisterDeleteTagTool registers the delete_tag tool.
func RegisterDeleteTagTool(s *server.MCPServer, db *sql.DB) {
	deleteTagTool := mcp.NewTool("delete_tag",
		mcp.WithDescription("Deletes a tag and removes it from every entry. The entries themselves are kept."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tag name.")),
	)
	s.AddTool(deleteTagTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, nameOk := request.Params.Arguments["name"].(string)
		if !nameOk || name == "" {
			return mcp.NewToolResultError("'name' parameter is required and must be a non-empty string."), nil
		}

		if err := catalog.DeleteTag(ctx, db, name); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete tag: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Tag '%s' deleted.", name)), nil
	})
}

// RegisterTagUsageTool registers the tag_usage tool.
func RegisterTagUsageTool(s *server.MCPServer, db *sql.DB) {
	tagUsageTool := mcp.NewTool("tag_usage",
		mcp.WithDescription("Returns the number of entries using a tag. A tag that does not exist has usage 0."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Tag name.")),
	)
	s.AddTool(tagUsageTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, nameOk := request.Params.Arguments["name"].(string)
		if !nameOk || name == "" {
			return mcp.NewToolResultError("'name' parameter is required and must be a non-empty string."), nil
		}

		count, err := catalog.TagUsageCount(ctx, db, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to count tag usage: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%d", count)), nil
	})
}

// RegisterExportCatalogTool registers the export_catalog tool.
func RegisterExportCatalogTool(s *server.MCPServer, db *sql.DB) {
	exportTool := mcp.NewTool("export_catalog",
		mcp.WithDescription("Exports the catalog as a JSON document keyed by file path. Related-file lists are not part of the document."),
	)
	s.AddTool(exportTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := catalog.ExportDocument(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to export catalog: %v", err)), nil
		}

		jsonResult, err := json.Marshal(doc)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize catalog to JSON: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// RegisterImportCatalogTool registers the import_catalog tool.
func RegisterImportCatalogTool(s *server.MCPServer, db *sql.DB) {
	importTool := mcp.NewTool("import_catalog",
		mcp.WithDescription("Imports a JSON catalog document. With replace=true the existing catalog (except built-in default tags) is cleared first."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The catalog document as a JSON string: {path: {name, tags}}.")),
		mcp.WithBoolean("replace", mcp.Description("Clear the catalog before importing. Defaults to false (merge).")),
	)
	s.AddTool(importTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docStr, docOk := request.Params.Arguments["document"].(string)
		replace, _ := request.Params.Arguments["replace"].(bool)

		if !docOk || docStr == "" {
			return mcp.NewToolResultError("'document' parameter is required."), nil
		}

		var doc catalog.Document
		if err := json.Unmarshal([]byte(docStr), &doc); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Document is not valid catalog JSON: %v", err)), nil
		}

		if err := catalog.ImportDocument(ctx, db, doc, replace); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to import catalog: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Imported %d entries (replace=%t).", len(doc), replace)), nil
	})
}
