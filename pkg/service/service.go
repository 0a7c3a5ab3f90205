// Package service orchestrates the UI-facing catalog use cases: input
// validation, the destructive-operation confirmation policy, folder-based
// multi-part adds, and import/export file handling. All atomicity
// guarantees live in pkg/catalog; this layer never opens its own
// transactions.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/makerbench/stlcat/pkg/catalog"
	"github.com/makerbench/stlcat/pkg/settings"
	"github.com/makerbench/stlcat/pkg/viewer"
)

var (
	ErrNoSTLFiles       = errors.New("no STL files in folder")
	ErrMainFileNotFound = errors.New("selected main file is not in the folder")
	// ErrCancelled reports that the user declined a confirmation prompt.
	ErrCancelled = errors.New("operation cancelled")
)

// ConfirmFunc asks the user to confirm a destructive operation. A nil
// ConfirmFunc means every operation is confirmed.
type ConfirmFunc func(prompt string) bool

// Service wires the catalog store to its callers.
type Service struct {
	db       *sql.DB
	settings settings.Settings
	launcher *viewer.Launcher
	confirm  ConfirmFunc
	log      *zap.Logger
}

// New builds a Service. launcher may be nil when viewing is not needed.
func New(db *sql.DB, st settings.Settings, launcher *viewer.Launcher, confirm ConfirmFunc, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:       db,
		settings: st,
		launcher: launcher,
		confirm:  confirm,
		log:      log,
	}
}

// NotifySuccess reports whether success messages should be shown to the user.
func (s *Service) NotifySuccess() bool {
	return s.settings.ShowSuccessMessages
}

// confirmed applies the confirmation policy for destructive operations.
func (s *Service) confirmed(prompt string) bool {
	if !s.settings.ConfirmDelete || s.confirm == nil {
		return true
	}
	return s.confirm(prompt)
}

// AddEntry catalogs a single-file model.
func (s *Service) AddEntry(ctx context.Context, filePath, name string, tags []string) (catalog.Entry, error) {
	entry, err := catalog.UpsertEntry(ctx, s.db, uuid.Nil, filePath, nil, name, tags)
	if err != nil {
		return catalog.Entry{}, err
	}
	s.log.Info("entry added", zap.String("id", entry.ID.String()), zap.String("path", entry.FilePath))
	return entry, nil
}

// AddFolder catalogs a folder of STL files as one multi-part entry. One
// file is designated main — the explicit mainFile when given, otherwise the
// first in alphabetical order — and the rest become the related set. An
// empty name defaults to the folder's base name.
func (s *Service) AddFolder(ctx context.Context, dir, mainFile, name string, tags []string) (catalog.Entry, error) {
	stlFiles, err := listSTLFiles(dir)
	if err != nil {
		return catalog.Entry{}, err
	}
	if len(stlFiles) == 0 {
		return catalog.Entry{}, fmt.Errorf("%w: %s", ErrNoSTLFiles, dir)
	}

	main := stlFiles[0]
	if mainFile != "" {
		main = ""
		for _, candidate := range stlFiles {
			if candidate == mainFile || filepath.Base(candidate) == mainFile {
				main = candidate
				break
			}
		}
		if main == "" {
			return catalog.Entry{}, fmt.Errorf("%w: %s", ErrMainFileNotFound, mainFile)
		}
	}

	related := make([]string, 0, len(stlFiles)-1)
	for _, candidate := range stlFiles {
		if candidate != main {
			related = append(related, candidate)
		}
	}

	if strings.TrimSpace(name) == "" {
		name = filepath.Base(dir)
	}

	entry, err := catalog.UpsertEntry(ctx, s.db, uuid.Nil, main, related, name, tags)
	if err != nil {
		return catalog.Entry{}, err
	}
	s.log.Info("folder added",
		zap.String("id", entry.ID.String()),
		zap.String("main", main),
		zap.Int("related", len(related)))
	return entry, nil
}

// listSTLFiles returns the .stl files directly inside dir, sorted by path.
func listSTLFiles(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder '%s': %w", dir, err)
	}

	var stlFiles []string
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(dirEntry.Name()), ".stl") {
			stlFiles = append(stlFiles, filepath.Join(dir, dirEntry.Name()))
		}
	}
	sort.Strings(stlFiles)
	return stlFiles, nil
}

// UpdateEntry fully replaces an entry's fields, tag set, and related files.
func (s *Service) UpdateEntry(ctx context.Context, id uuid.UUID, filePath string, related []string, name string, tags []string) (catalog.Entry, error) {
	return catalog.UpsertEntry(ctx, s.db, id, filePath, related, name, tags)
}

// DeleteEntries removes the listed entries after running the confirmation
// policy. Returns ErrCancelled when the user declines.
func (s *Service) DeleteEntries(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if !s.confirmed(fmt.Sprintf("Delete %d entries from the catalog?", len(ids))) {
		return ErrCancelled
	}
	if err := catalog.DeleteEntries(ctx, s.db, ids); err != nil {
		return err
	}
	s.log.Info("entries deleted", zap.Int("count", len(ids)))
	return nil
}

// Search lists catalog entries, filtered by searchTerm when non-empty.
func (s *Service) Search(ctx context.Context, searchTerm string) ([]catalog.EntrySummary, error) {
	return catalog.ListEntries(ctx, s.db, strings.TrimSpace(searchTerm))
}

// Details returns an entry with its tags and related files.
func (s *Service) Details(ctx context.Context, id uuid.UUID) (catalog.EntryDetails, error) {
	return catalog.GetEntryDetails(ctx, s.db, id)
}

// ExportFile writes the catalog snapshot document to path as indented JSON.
func (s *Service) ExportFile(ctx context.Context, path string) error {
	doc, err := catalog.ExportDocument(ctx, s.db)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode export document: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write export file '%s': %w", path, err)
	}

	s.log.Info("catalog exported", zap.String("path", path), zap.Int("entries", len(doc)))
	return nil
}

// ImportFile loads a snapshot document from path. Replace mode clears the
// catalog first and therefore runs the confirmation policy.
func (s *Service) ImportFile(ctx context.Context, path string, replace bool) error {
	if replace && !s.confirmed("Replace the entire catalog with the imported file?") {
		return ErrCancelled
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file '%s': %w", path, err)
	}

	var doc catalog.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("import file '%s' is not a valid catalog document: %w", path, err)
	}

	if err := catalog.ImportDocument(ctx, s.db, doc, replace); err != nil {
		return err
	}

	s.log.Info("catalog imported", zap.String("path", path), zap.Int("entries", len(doc)), zap.Bool("replace", replace))
	return nil
}

// View launches the external viewer for an entry's main file. Only
// pre-spawn problems (unknown entry, missing file, unstartable executable)
// are reported; a running viewer is never awaited.
func (s *Service) View(ctx context.Context, id uuid.UUID, vs viewer.Settings) error {
	if s.launcher == nil {
		return errors.New("no viewer launcher configured")
	}

	entry, err := catalog.GetEntry(ctx, s.db, id)
	if err != nil {
		return err
	}

	if err := s.launcher.Launch(entry.FilePath, vs); err != nil {
		s.log.Warn("viewer launch failed", zap.String("path", entry.FilePath), zap.Error(err))
		return err
	}
	return nil
}
