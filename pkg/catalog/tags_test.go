package catalog

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/makerbench/stlcat/pkg/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	if err := db.InitializeSchema(testDB, db.TargetSchemaVersion); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	return testDB
}

// createTestEntry inserts an entry with the given tags for test setup.
func createTestEntry(t *testing.T, ctx context.Context, testDB *sql.DB, filePath, name string, tags []string) Entry {
	t.Helper()
	entry, err := UpsertEntry(ctx, testDB, uuid.Nil, filePath, nil, name, tags)
	if err != nil {
		t.Fatalf("UpsertEntry failed in createTestEntry: %v", err)
	}
	return entry
}

// assertEntryTags compares an entry's stored tag set against the expected
// names, order-independent.
func assertEntryTags(t *testing.T, ctx context.Context, testDB *sql.DB, entryID uuid.UUID, expected []string) {
	t.Helper()
	details, err := GetEntryDetails(ctx, testDB, entryID)
	if err != nil {
		t.Fatalf("GetEntryDetails failed: %v", err)
	}

	var actual []string
	if details.Tags != "" {
		actual = strings.Split(details.Tags, ",")
	}

	if len(actual) != len(expected) {
		t.Errorf("Expected %d tags, got %d. Expected: %v, Got: %v", len(expected), len(actual), expected, actual)
		return
	}

	sort.Strings(actual)
	sort.Strings(expected)
	for i := range actual {
		if actual[i] != expected[i] {
			t.Errorf("Tag mismatch. Expected tags %v, got %v", expected, actual)
			return
		}
	}
}

func TestAddTag(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()
	ctx := context.Background()

	if err := AddTag(ctx, testDB, ""); !errors.Is(err, ErrEmptyTagName) {
		t.Errorf("Expected ErrEmptyTagName for empty tag, got: %v", err)
	}
	if err := AddTag(ctx, testDB, "   "); !errors.Is(err, ErrEmptyTagName) {
		t.Errorf("Expected ErrEmptyTagName for whitespace-only tag, got: %v", err)
	}

	if err := AddTag(ctx, testDB, "Resin"); err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}
	// Adding an existing tag is a no-op.
	if err := AddTag(ctx, testDB, "Resin"); err != nil {
		t.Errorf("Adding an existing tag should not error, got: %v", err)
	}

	names, err := ListTagNames(ctx, testDB)
	if err != nil {
		t.Fatalf("ListTagNames failed: %v", err)
	}

	occurrences := 0
	for _, name := range names {
		if name == "Resin" {
			occurrences++
		}
	}
	if occurrences != 1 {
		t.Errorf("Expected 'Resin' to appear exactly once, got %d occurrences in %v", occurrences, names)
	}
}

func TestEnsureDefaultTags(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()
	ctx := context.Background()

	if err := EnsureDefaultTags(ctx, testDB); err != nil {
		t.Fatalf("EnsureDefaultTags failed: %v", err)
	}
	// Seeding again must not duplicate.
	if err := EnsureDefaultTags(ctx, testDB); err != nil {
		t.Fatalf("EnsureDefaultTags failed on second call: %v", err)
	}

	names, err := ListTagNames(ctx, testDB)
	if err != nil {
		t.Fatalf("ListTagNames failed: %v", err)
	}

	if len(names) != len(DefaultTags) {
		t.Errorf("Expected exactly the %d default tags, got %v", len(DefaultTags), names)
	}
	for _, wanted := range DefaultTags {
		found := false
		for _, name := range names {
			if name == wanted {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Default tag '%s' missing from %v", wanted, names)
		}
	}
}

func TestListTagNamesSorted(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "Mid"} {
		if err := AddTag(ctx, testDB, name); err != nil {
			t.Fatalf("AddTag(%q) failed: %v", name, err)
		}
	}

	names, err := ListTagNames(ctx, testDB)
	if err != nil {
		t.Fatalf("ListTagNames failed: %v", err)
	}

	if !sort.StringsAreSorted(names) {
		t.Errorf("Expected sorted tag names, got %v", names)
	}
	if len(names) != 3 {
		t.Errorf("Expected 3 tags, got %d: %v", len(names), names)
	}
}

func TestTagUsageCount(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()
	ctx := context.Background()

	count, err := TagUsageCount(ctx, testDB, "nonexistent")
	if err != nil {
		t.Fatalf("TagUsageCount failed for missing tag: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected usage count 0 for missing tag, got %d", count)
	}

	createTestEntry(t, ctx, testDB, "/models/a.stl", "A", []string{"FDM"})
	createTestEntry(t, ctx, testDB, "/models/b.stl", "B", []string{"FDM", "Resin"})
	createTestEntry(t, ctx, testDB, "/models/c.stl", "C", []string{"FDM"})

	count, err = TagUsageCount(ctx, testDB, "FDM")
	if err != nil {
		t.Fatalf("TagUsageCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected usage count 3 for 'FDM', got %d", count)
	}

	count, err = TagUsageCount(ctx, testDB, "Resin")
	if err != nil {
		t.Fatalf("TagUsageCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected usage count 1 for 'Resin', got %d", count)
	}
}

func TestRenameTag(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()
	ctx := context.Background()

	entry1 := createTestEntry(t, ctx, testDB, "/models/a.stl", "A", []string{"draft"})
	entry2 := createTestEntry(t, ctx, testDB, "/models/b.stl", "B", []string{"draft", "large"})

	if err := RenameTag(ctx, testDB, "", "final"); !errors.Is(err, ErrEmptyTagName) {
		t.Errorf("Expected ErrEmptyTagName for empty old name, got: %v", err)
	}
	if err := RenameTag(ctx, testDB, "draft", "  "); !errors.Is(err, ErrEmptyTagName) {
		t.Errorf("Expected ErrEmptyTagName for empty new name, got: %v", err)
	}
	if err := RenameTag(ctx, testDB, "missing", "final"); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("Expected ErrTagNotFound for unknown old tag, got: %v", err)
	}

	// Renaming a tag to itself is a no-op.
	if err := RenameTag(ctx, testDB, "draft", "draft"); err != nil {
		t.Errorf("Renaming a tag to itself should succeed, got: %v", err)
	}

	if err := RenameTag(ctx, testDB, "draft", "final"); err != nil {
		t.Fatalf("RenameTag failed: %v", err)
	}

	assertEntryTags(t, ctx, testDB, entry1.ID, []string{"final"})
	assertEntryTags(t, ctx, testDB, entry2.ID, []string{"final", "large"})

	names, err := ListTagNames(ctx, testDB)
	if err != nil {
		t.Fatalf("ListTagNames failed: %v", err)
	}
	for _, name := range names {
		if name == "draft" {
			t.Errorf("Tag 'draft' still exists after rename: %v", names)
		}
	}
}

func TestRenameTagMerge(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()
	ctx := context.Background()

	// entryBoth carries both names; the merge must not create a duplicate link.
	entryBoth := createTestEntry(t, ctx, testDB, "/models/both.stl", "Both", []string{"old", "new"})
	entryOld := createTestEntry(t, ctx, testDB, "/models/old.stl", "Old only", []string{"old"})

	if err := RenameTag(ctx, testDB, "old", "new"); err != nil {
		t.Fatalf("RenameTag (merge) failed: %v", err)
	}

	assertEntryTags(t, ctx, testDB, entryBoth.ID, []string{"new"})
	assertEntryTags(t, ctx, testDB, entryOld.ID, []string{"new"})

	var linkCount int
	err := testDB.QueryRow(`
		SELECT COUNT(*) FROM entry_tags et
		JOIN tags t ON et.tag_id = t.id
		WHERE et.entry_id = ? AND t.name = 'new'`, entryBoth.ID).Scan(&linkCount)
	if err != nil {
		t.Fatalf("Failed to count links: %v", err)
	}
	if linkCount != 1 {
		t.Errorf("Expected exactly one 'new' link for merged entry, got %d", linkCount)
	}

	count, err := TagUsageCount(ctx, testDB, "old")
	if err != nil {
		t.Fatalf("TagUsageCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected tag 'old' to be gone, usage count %d", count)
	}
}

func TestDeleteTag(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()
	ctx := context.Background()

	entries := []Entry{
		createTestEntry(t, ctx, testDB, "/models/a.stl", "A", []string{"FDM"}),
		createTestEntry(t, ctx, testDB, "/models/b.stl", "B", []string{"FDM"}),
		createTestEntry(t, ctx, testDB, "/models/c.stl", "C", []string{"FDM"}),
	}

	if err := DeleteTag(ctx, testDB, "FDM"); err != nil {
		t.Fatalf("DeleteTag failed: %v", err)
	}

	count, err := TagUsageCount(ctx, testDB, "FDM")
	if err != nil {
		t.Fatalf("TagUsageCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected usage count 0 after tag deletion, got %d", count)
	}

	// The entries themselves survive their tag.
	for _, entry := range entries {
		if _, err := GetEntry(ctx, testDB, entry.ID); err != nil {
			t.Errorf("Entry %s should survive tag deletion: %v", entry.ID, err)
		}
	}

	// Deleting a tag that does not exist is a no-op.
	if err := DeleteTag(ctx, testDB, "FDM"); err != nil {
		t.Errorf("Deleting a missing tag should succeed, got: %v", err)
	}
}
