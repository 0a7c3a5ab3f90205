package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	upsertEntryStatement = `
	INSERT INTO entries (id, file_path, name, is_multi_part)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(file_path) DO UPDATE SET name = excluded.name, is_multi_part = excluded.is_multi_part
	`

	updateEntryStatement = `
	UPDATE entries
	SET file_path = ?, name = ?, is_multi_part = ?
	WHERE id = ?
	`

	getEntryStatement = `
	SELECT id, file_path, name, date_added, is_multi_part
	FROM entries
	WHERE id = ?
	`

	getEntryIDByPathStatement = `
	SELECT id FROM entries WHERE file_path = ?
	`

	getEntryDetailsStatement = `
	SELECT e.id, e.file_path, e.name, e.date_added, e.is_multi_part,
	       COALESCE(GROUP_CONCAT(t.name), '') AS tags
	FROM entries e
	LEFT JOIN entry_tags et ON e.id = et.entry_id
	LEFT JOIN tags t ON et.tag_id = t.id
	WHERE e.id = ?
	GROUP BY e.id
	`

	listRelatedFilesStatement = `
	SELECT file_path FROM related_files
	WHERE entry_id = ?
	ORDER BY file_path ASC
	`

	listEntriesStatement = `
	SELECT id, name, file_path FROM entries ORDER BY name ASC
	`

	searchEntriesStatement = `
	SELECT DISTINCT e.id, e.name, e.file_path
	FROM entries e
	LEFT JOIN entry_tags et ON e.id = et.entry_id
	LEFT JOIN tags t ON et.tag_id = t.id
	WHERE LOWER(e.name) LIKE ? OR LOWER(t.name) LIKE ?
	ORDER BY e.name ASC
	`
)

// UpsertEntry creates a new entry (id == uuid.Nil) or fully replaces an
// existing entry's core fields, tag set, and related-file set. Creating an
// entry whose path is already cataloged replaces that entry instead of
// erroring; the stored row keeps its id. Tag links and related files are
// replaced wholesale, not diffed. The entry is flagged multi-part whenever
// it carries at least one related file.
//
// Everything runs in one transaction: on any failure the catalog is left in
// its pre-call state.
func UpsertEntry(ctx context.Context, db *sql.DB, id uuid.UUID, mainFilePath string, relatedFilePaths []string, name string, tags []string) (Entry, error) {
	mainFilePath = strings.TrimSpace(mainFilePath)
	name = strings.TrimSpace(name)
	if mainFilePath == "" {
		return Entry{}, ErrEmptyFilePath
	}
	if name == "" {
		return Entry{}, ErrEmptyName
	}

	isMultiPart := len(relatedFilePaths) >= 1

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if id == uuid.Nil {
		if _, err := tx.ExecContext(ctx, upsertEntryStatement, uuid.New(), mainFilePath, name, isMultiPart); err != nil {
			return Entry{}, fmt.Errorf("failed to insert entry for '%s': %w", mainFilePath, err)
		}
		// Resolve the stored id by path: on a replace the prior row's id survives.
		if err := tx.QueryRowContext(ctx, getEntryIDByPathStatement, mainFilePath).Scan(&id); err != nil {
			return Entry{}, fmt.Errorf("failed to resolve entry id for '%s': %w", mainFilePath, err)
		}
	} else {
		res, err := tx.ExecContext(ctx, updateEntryStatement, mainFilePath, name, isMultiPart, id)
		if err != nil {
			return Entry{}, fmt.Errorf("failed to update entry %s: %w", id, err)
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return Entry{}, err
		}
		if rowsAffected == 0 {
			return Entry{}, ErrEntryNotFound
		}
	}

	if err := replaceEntryTags(ctx, tx, id, tags); err != nil {
		return Entry{}, err
	}
	if err := replaceRelatedFiles(ctx, tx, id, relatedFilePaths); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("failed to commit entry upsert: %w", err)
	}

	return GetEntry(ctx, db, id)
}

// replaceEntryTags swaps an entry's tag links for the given set. Tags are
// created on demand; duplicate names in the input collapse to one link.
func replaceEntryTags(ctx context.Context, tx *sql.Tx, entryID uuid.UUID, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE entry_id = ?`, entryID); err != nil {
		return fmt.Errorf("failed to clear tag links for entry %s: %w", entryID, err)
	}

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, insertTagStatement, uuid.New(), tag); err != nil {
			return fmt.Errorf("failed to ensure tag '%s': %w", tag, err)
		}
		var tagID uuid.UUID
		if err := tx.QueryRowContext(ctx, selectTagIDStatement, tag).Scan(&tagID); err != nil {
			return fmt.Errorf("failed to look up tag '%s': %w", tag, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entry_tags (entry_id, tag_id) VALUES (?, ?)
			ON CONFLICT(entry_id, tag_id) DO NOTHING`, entryID, tagID); err != nil {
			return fmt.Errorf("failed to link tag '%s' to entry %s: %w", tag, entryID, err)
		}
	}
	return nil
}

func replaceRelatedFiles(ctx context.Context, tx *sql.Tx, entryID uuid.UUID, relatedFilePaths []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM related_files WHERE entry_id = ?`, entryID); err != nil {
		return fmt.Errorf("failed to clear related files for entry %s: %w", entryID, err)
	}

	for _, relatedPath := range relatedFilePaths {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO related_files (id, entry_id, file_path) VALUES (?, ?, ?)`,
			uuid.New(), entryID, relatedPath); err != nil {
			return fmt.Errorf("failed to insert related file '%s' for entry %s: %w", relatedPath, entryID, err)
		}
	}
	return nil
}

// GetEntry retrieves an entry's core fields.
func GetEntry(ctx context.Context, db *sql.DB, id uuid.UUID) (Entry, error) {
	var entry Entry

	err := db.QueryRowContext(ctx, getEntryStatement, id).Scan(
		&entry.ID,
		&entry.FilePath,
		&entry.Name,
		&entry.DateAdded,
		&entry.IsMultiPart,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}

	return entry, nil
}

// GetEntryByPath resolves an entry by its unique main file path.
func GetEntryByPath(ctx context.Context, db *sql.DB, filePath string) (Entry, error) {
	var id uuid.UUID
	err := db.QueryRowContext(ctx, getEntryIDByPathStatement, filePath).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	return GetEntry(ctx, db, id)
}

// GetEntryDetails returns an entry together with its comma-joined tag names
// and its related file paths sorted by path.
func GetEntryDetails(ctx context.Context, db *sql.DB, id uuid.UUID) (EntryDetails, error) {
	var details EntryDetails

	err := db.QueryRowContext(ctx, getEntryDetailsStatement, id).Scan(
		&details.ID,
		&details.FilePath,
		&details.Name,
		&details.DateAdded,
		&details.IsMultiPart,
		&details.Tags,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EntryDetails{}, ErrEntryNotFound
		}
		return EntryDetails{}, err
	}

	details.RelatedFiles = []string{}
	rows, err := db.QueryContext(ctx, listRelatedFilesStatement, id)
	if err != nil {
		return EntryDetails{}, fmt.Errorf("failed to query related files for entry %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var relatedPath string
		if err := rows.Scan(&relatedPath); err != nil {
			return EntryDetails{}, fmt.Errorf("failed to scan related file row: %w", err)
		}
		details.RelatedFiles = append(details.RelatedFiles, relatedPath)
	}
	if err = rows.Err(); err != nil {
		return EntryDetails{}, fmt.Errorf("error iterating related file rows: %w", err)
	}

	return details, nil
}

// ListEntries returns all entries ordered by name. A non-empty searchTerm
// filters case-insensitively by substring match against the entry name or
// any linked tag name.
func ListEntries(ctx context.Context, db *sql.DB, searchTerm string) ([]EntrySummary, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if searchTerm != "" {
		pattern := "%" + strings.ToLower(searchTerm) + "%"
		rows, err = db.QueryContext(ctx, searchEntriesStatement, pattern, pattern)
	} else {
		rows, err = db.QueryContext(ctx, listEntriesStatement)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []EntrySummary
	for rows.Next() {
		var summary EntrySummary
		if err := rows.Scan(&summary.ID, &summary.Name, &summary.FilePath); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, summary)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}

	return entries, nil
}

// DeleteEntries removes the listed entries along with their tag links and
// related files. The batch is atomic: either every listed entry is removed
// or none are.
func DeleteEntries(ctx context.Context, db *sql.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		// Related files cascade via the entry row.
		if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE entry_id = ?`, id); err != nil {
			return fmt.Errorf("failed to remove tag links for entry %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete entry %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry deletion: %w", err)
	}
	return nil
}
