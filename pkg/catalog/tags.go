package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	selectTagIDStatement = `
	SELECT id FROM tags WHERE name = ?
	`

	insertTagStatement = `
	INSERT INTO tags (id, name) VALUES (?, ?)
	ON CONFLICT(name) DO NOTHING
	`

	listTagNamesStatement = `
	SELECT name FROM tags ORDER BY name ASC
	`

	tagUsageCountStatement = `
	SELECT COUNT(*)
	FROM entry_tags et
	JOIN tags t ON et.tag_id = t.id
	WHERE t.name = ?
	`
)

// EnsureDefaultTags seeds the built-in default tags if they are absent.
// Called once during schema setup so that tag listing stays side-effect-free.
func EnsureDefaultTags(ctx context.Context, db *sql.DB) error {
	for _, name := range DefaultTags {
		if _, err := db.ExecContext(ctx, insertTagStatement, uuid.New(), name); err != nil {
			return fmt.Errorf("failed to seed default tag '%s': %w", name, err)
		}
	}
	return nil
}

// ListTagNames returns all tag names sorted alphabetically.
func ListTagNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, listTagNamesStatement)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		names = append(names, name)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}

	return names, nil
}

// TagUsageCount returns the number of entries linked to the named tag.
// A tag that does not exist has a usage count of 0; that is not an error.
func TagUsageCount(ctx context.Context, db *sql.DB, name string) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, tagUsageCountStatement, name).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count usage for tag '%s': %w", name, err)
	}
	return count, nil
}

// AddTag inserts a tag if the trimmed name is not already present.
// Inserting an existing tag is a no-op, not an error.
func AddTag(ctx context.Context, db *sql.DB, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyTagName
	}

	if _, err := db.ExecContext(ctx, insertTagStatement, uuid.New(), name); err != nil {
		return fmt.Errorf("failed to add tag '%s': %w", name, err)
	}
	return nil
}

// RenameTag renames oldName to newName. If newName already exists the two
// tags are merged: every entry linked to the old tag is linked to the
// surviving tag (skipping entries already carrying it) and the old tag is
// removed. The whole operation runs in one transaction; on any failure the
// database is left exactly as before the call.
func RenameTag(ctx context.Context, db *sql.DB, oldName, newName string) error {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		return ErrEmptyTagName
	}
	if oldName == newName {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldID uuid.UUID
	err = tx.QueryRowContext(ctx, selectTagIDStatement, oldName).Scan(&oldID)
	if err == sql.ErrNoRows {
		return ErrTagNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up tag '%s': %w", oldName, err)
	}

	var newID uuid.UUID
	err = tx.QueryRowContext(ctx, selectTagIDStatement, newName).Scan(&newID)
	switch {
	case err == sql.ErrNoRows:
		// Plain rename: introduce the new tag row, move every link over,
		// drop the old row.
		newID = uuid.New()
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (id, name) VALUES (?, ?)`, newID, newName); err != nil {
			return fmt.Errorf("failed to create tag '%s': %w", newName, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE entry_tags SET tag_id = ? WHERE tag_id = ?`, newID, oldID); err != nil {
			return fmt.Errorf("failed to relink entries from '%s' to '%s': %w", oldName, newName, err)
		}
	case err != nil:
		return fmt.Errorf("failed to look up tag '%s': %w", newName, err)
	default:
		// Merge: the target tag already exists. An entry may carry both
		// names, so links are copied with insert-if-absent before the old
		// links are dropped.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entry_tags (entry_id, tag_id)
			SELECT entry_id, ? FROM entry_tags WHERE tag_id = ?
			ON CONFLICT(entry_id, tag_id) DO NOTHING`, newID, oldID); err != nil {
			return fmt.Errorf("failed to merge links from '%s' into '%s': %w", oldName, newName, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE tag_id = ?`, oldID); err != nil {
			return fmt.Errorf("failed to remove links for '%s': %w", oldName, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, oldID); err != nil {
		return fmt.Errorf("failed to delete tag '%s': %w", oldName, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tag rename: %w", err)
	}
	return nil
}

// DeleteTag removes a tag and all of its entry links. Deleting a tag that
// does not exist succeeds as a no-op. Entries referencing the tag are kept.
func DeleteTag(ctx context.Context, db *sql.DB, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyTagName
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var tagID uuid.UUID
	err = tx.QueryRowContext(ctx, selectTagIDStatement, name).Scan(&tagID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up tag '%s': %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entry_tags WHERE tag_id = ?`, tagID); err != nil {
		return fmt.Errorf("failed to remove links for tag '%s': %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, tagID); err != nil {
		return fmt.Errorf("failed to delete tag '%s': %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tag deletion: %w", err)
	}
	return nil
}
