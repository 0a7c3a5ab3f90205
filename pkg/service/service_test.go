package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makerbench/stlcat/pkg/catalog"
	"github.com/makerbench/stlcat/pkg/db"
	"github.com/makerbench/stlcat/pkg/settings"
	"github.com/makerbench/stlcat/pkg/viewer"
)

func newTestService(t *testing.T, st settings.Settings, confirm ConfirmFunc) (*Service, *sql.DB) {
	t.Helper()

	testDB, err := db.OpenDBConnection(":memory:", true, "NORMAL")
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Close() })

	require.NoError(t, db.InitializeSchema(testDB, db.TargetSchemaVersion))

	return New(testDB, st, nil, confirm, nil), testDB
}

func writeSTL(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("solid\nendsolid\n"), 0644))
	return path
}

func TestAddEntry(t *testing.T) {
	svc, testDB := newTestService(t, settings.Default(), nil)
	ctx := context.Background()

	entry, err := svc.AddEntry(ctx, "/models/widget.stl", "Widget", []string{"FDM"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, entry.ID)

	details, err := catalog.GetEntryDetails(ctx, testDB, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", details.Name)
	assert.Equal(t, "FDM", details.Tags)
}

func TestAddEntryValidation(t *testing.T) {
	svc, _ := newTestService(t, settings.Default(), nil)
	ctx := context.Background()

	_, err := svc.AddEntry(ctx, "", "Widget", nil)
	assert.ErrorIs(t, err, catalog.ErrEmptyFilePath)

	_, err = svc.AddEntry(ctx, "/models/widget.stl", "   ", nil)
	assert.ErrorIs(t, err, catalog.ErrEmptyName)
}

func TestAddFolder(t *testing.T) {
	svc, testDB := newTestService(t, settings.Default(), nil)
	ctx := context.Background()

	dir := t.TempDir()
	writeSTL(t, dir, "b_part.stl")
	writeSTL(t, dir, "a_main.stl")
	writeSTL(t, dir, "c_part.STL")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("notes"), 0644))

	entry, err := svc.AddFolder(ctx, dir, "", "", []string{"FDM"})
	require.NoError(t, err)

	// First STL alphabetically becomes main; the rest are related.
	assert.Equal(t, filepath.Join(dir, "a_main.stl"), entry.FilePath)
	assert.True(t, entry.IsMultiPart)
	assert.Equal(t, filepath.Base(dir), entry.Name)

	details, err := catalog.GetEntryDetails(ctx, testDB, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b_part.stl"), filepath.Join(dir, "c_part.STL")}, details.RelatedFiles)
}

func TestAddFolderExplicitMain(t *testing.T) {
	svc, _ := newTestService(t, settings.Default(), nil)
	ctx := context.Background()

	dir := t.TempDir()
	writeSTL(t, dir, "base.stl")
	writeSTL(t, dir, "lid.stl")

	entry, err := svc.AddFolder(ctx, dir, "lid.stl", "Box", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lid.stl"), entry.FilePath)
	assert.Equal(t, "Box", entry.Name)

	_, err = svc.AddFolder(ctx, dir, "elsewhere.stl", "Box", nil)
	assert.ErrorIs(t, err, ErrMainFileNotFound)
}

func TestAddFolderEmpty(t *testing.T) {
	svc, _ := newTestService(t, settings.Default(), nil)
	ctx := context.Background()

	_, err := svc.AddFolder(ctx, t.TempDir(), "", "Empty", nil)
	assert.ErrorIs(t, err, ErrNoSTLFiles)
}

func TestDeleteEntriesConfirmationPolicy(t *testing.T) {
	declined := false
	confirm := func(prompt string) bool {
		declined = true
		return false
	}

	svc, testDB := newTestService(t, settings.Default(), confirm)
	ctx := context.Background()

	entry, err := svc.AddEntry(ctx, "/models/widget.stl", "Widget", nil)
	require.NoError(t, err)

	err = svc.DeleteEntries(ctx, []uuid.UUID{entry.ID})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.True(t, declined)

	// Declining leaves the entry alone.
	_, err = catalog.GetEntry(ctx, testDB, entry.ID)
	assert.NoError(t, err)
}

func TestDeleteEntriesConfirmDisabled(t *testing.T) {
	st := settings.Default()
	st.ConfirmDelete = false
	confirm := func(prompt string) bool {
		t.Fatal("confirm must not be called when confirm_delete is off")
		return false
	}

	svc, testDB := newTestService(t, st, confirm)
	ctx := context.Background()

	entry, err := svc.AddEntry(ctx, "/models/widget.stl", "Widget", nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntries(ctx, []uuid.UUID{entry.ID}))

	_, err = catalog.GetEntry(ctx, testDB, entry.ID)
	assert.ErrorIs(t, err, catalog.ErrEntryNotFound)
}

func TestExportImportFiles(t *testing.T) {
	svc, _ := newTestService(t, settings.Default(), nil)
	ctx := context.Background()

	_, err := svc.AddEntry(ctx, "/a/box.stl", "Box", []string{"FDM"})
	require.NoError(t, err)
	_, err = svc.AddEntry(ctx, "/a/vase.stl", "Vase", nil)
	require.NoError(t, err)

	exportPath := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, svc.ExportFile(ctx, exportPath))

	raw, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var doc catalog.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Len(t, doc, 2)
	assert.Equal(t, "Box", doc["/a/box.stl"].Name)

	// Import the snapshot into a fresh catalog.
	other, otherDB := newTestService(t, settings.Default(), nil)
	require.NoError(t, other.ImportFile(ctx, exportPath, false))

	imported, err := catalog.ListEntries(ctx, otherDB, "")
	require.NoError(t, err)
	assert.Len(t, imported, 2)
}

func TestImportFileMalformed(t *testing.T) {
	svc, testDB := newTestService(t, settings.Default(), nil)
	ctx := context.Background()

	_, err := svc.AddEntry(ctx, "/a/box.stl", "Box", nil)
	require.NoError(t, err)

	badPath := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{broken"), 0644))

	err = svc.ImportFile(ctx, badPath, false)
	require.Error(t, err)

	// The store is left untouched.
	entries, err := catalog.ListEntries(ctx, testDB, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImportFileReplaceConfirmation(t *testing.T) {
	confirm := func(prompt string) bool { return false }
	svc, _ := newTestService(t, settings.Default(), confirm)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))

	err := svc.ImportFile(ctx, path, true)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestViewUnknownEntry(t *testing.T) {
	svc, _ := newTestService(t, settings.Default(), nil)
	ctx := context.Background()

	// No launcher configured at all.
	err := svc.View(ctx, uuid.New(), viewer.DefaultSettings())
	assert.Error(t, err)
}
