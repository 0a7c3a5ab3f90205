package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// DocumentEntry is the value shape of the interchange document.
type DocumentEntry struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// Document is the JSON interchange format for the catalog: an object keyed
// by main file path. Related-file lists are not part of the format; a
// multi-part entry round-trips as its main file only.
type Document map[string]DocumentEntry

const exportDocumentStatement = `
SELECT e.file_path, e.name, COALESCE(GROUP_CONCAT(t.name), '') AS tags
FROM entries e
LEFT JOIN entry_tags et ON e.id = et.entry_id
LEFT JOIN tags t ON et.tag_id = t.id
GROUP BY e.id
`

// ExportDocument snapshots every entry as filePath -> {name, tags}.
func ExportDocument(ctx context.Context, db *sql.DB) (Document, error) {
	rows, err := db.QueryContext(ctx, exportDocumentStatement)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for export: %w", err)
	}
	defer rows.Close()

	doc := Document{}
	for rows.Next() {
		var filePath, name, joinedTags string
		if err := rows.Scan(&filePath, &name, &joinedTags); err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		tags := []string{}
		if joinedTags != "" {
			tags = strings.Split(joinedTags, ",")
		}
		doc[filePath] = DocumentEntry{Name: name, Tags: tags}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating export rows: %w", err)
	}

	return doc, nil
}

// ImportDocument loads a document into the catalog in one transaction.
//
// With replace set, all entries, tag links, and every tag except the
// built-in defaults are cleared first. Without it the document is merged:
// each imported path's existing tag links are replaced by the document's
// tag list and its related files are dropped (the document format carries
// none), entries not named in the document are untouched.
func ImportDocument(ctx context.Context, db *sql.DB, doc Document, replace bool) error {
	if len(doc) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if err := clearCatalog(ctx, tx); err != nil {
			return err
		}
	}

	for filePath, docEntry := range doc {
		if _, err := tx.ExecContext(ctx, upsertEntryStatement, uuid.New(), filePath, docEntry.Name, false); err != nil {
			return fmt.Errorf("failed to import entry '%s': %w", filePath, err)
		}

		var entryID uuid.UUID
		if err := tx.QueryRowContext(ctx, getEntryIDByPathStatement, filePath).Scan(&entryID); err != nil {
			return fmt.Errorf("failed to resolve imported entry '%s': %w", filePath, err)
		}

		if err := replaceEntryTags(ctx, tx, entryID, docEntry.Tags); err != nil {
			return err
		}
		// The document carries no related files; an imported path is a
		// single-part entry, so any prior related rows go with the flag.
		if err := replaceRelatedFiles(ctx, tx, entryID, nil); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// clearCatalog empties the entry and link tables and drops every tag that
// is not a built-in default.
func clearCatalog(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags`); err != nil {
		return fmt.Errorf("failed to clear tag links: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM related_files`); err != nil {
		return fmt.Errorf("failed to clear related files: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	placeholders := strings.Repeat("?,", len(DefaultTags)-1) + "?"
	args := make([]interface{}, len(DefaultTags))
	for i, name := range DefaultTags {
		args[i] = name
	}
	deleteSQL := fmt.Sprintf(`DELETE FROM tags WHERE name NOT IN (%s)`, placeholders)
	if _, err := tx.ExecContext(ctx, deleteSQL, args...); err != nil {
		return fmt.Errorf("failed to clear non-default tags: %w", err)
	}
	return nil
}

// MigrateLegacyDocumentIfEmpty imports the legacy flat-file document at
// legacyPath with merge semantics, but only when the catalog holds zero
// entries and the file exists. It reports whether a migration ran. This is
// a one-time upgrade path, not a repeating sync.
func MigrateLegacyDocumentIfEmpty(ctx context.Context, db *sql.DB, legacyPath string) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count entries: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	raw, err := os.ReadFile(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read legacy document '%s': %w", legacyPath, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("legacy document '%s' is not valid JSON: %w", legacyPath, err)
	}
	if len(doc) == 0 {
		return false, nil
	}

	if err := ImportDocument(ctx, db, doc, false); err != nil {
		return false, err
	}
	return true, nil
}
