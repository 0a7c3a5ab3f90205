package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/makerbench/stlcat/pkg/catalog"
	pkgdb "github.com/makerbench/stlcat/pkg/db"
	"github.com/makerbench/stlcat/pkg/service"
	"github.com/makerbench/stlcat/pkg/settings"
	"github.com/makerbench/stlcat/pkg/utils"
	"github.com/makerbench/stlcat/pkg/viewer"
)

// openDB resolves the database path, opens the connection, and makes sure
// the schema, default tags, and any legacy JSON catalog are in place.
func openDB(ctx context.Context) (*sql.DB, error) {
	resolvedPath, err := utils.ResolveAndEnsurePath(dbPath, utils.DefaultDBPath())
	if err != nil {
		return nil, err
	}

	dbConn, err := pkgdb.OpenDBConnection(resolvedPath, walMode, syncMode)
	if err != nil {
		return nil, err
	}

	if err := pkgdb.UpgradeDB(dbConn, resolvedPath, pkgdb.TargetSchemaVersion); err != nil {
		dbConn.Close()
		return nil, err
	}
	if err := catalog.EnsureDefaultTags(ctx, dbConn); err != nil {
		dbConn.Close()
		return nil, err
	}

	migrated, err := catalog.MigrateLegacyDocumentIfEmpty(ctx, dbConn, utils.DefaultLegacyDocumentPath())
	if err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to migrate legacy catalog: %w", err)
	}
	if migrated {
		fmt.Fprintf(os.Stderr, "Migrated legacy catalog from %s\n", utils.DefaultLegacyDocumentPath())
	}

	return dbConn, nil
}

// newService wires a catalog service from the persistent flags: loaded
// settings, a viewer launcher, a terminal confirmation prompt, and a logger.
func newService(dbConn *sql.DB, viewerExecutable string) *service.Service {
	st := settings.Load(resolveSettingsPath())
	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}
	launcher := viewer.NewLauncher(viewerExecutable, log)
	return service.New(dbConn, st, launcher, promptConfirm, log)
}

// settingsWithoutConfirm returns the loaded settings with delete
// confirmation turned off, for --yes style flags.
func settingsWithoutConfirm() settings.Settings {
	st := settings.Load(resolveSettingsPath())
	st.ConfirmDelete = false
	return st
}

func resolveSettingsPath() string {
	if settingsPath != "" {
		return settingsPath
	}
	return utils.DefaultSettingsPath()
}

// promptConfirm asks a yes/no question on the terminal, defaulting to no.
func promptConfirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// splitTagsFlag parses a comma-separated flag value into trimmed non-empty items.
func splitTagsFlag(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

// formatTimestamp converts a Unix timestamp (float64, seconds since epoch)
// to a human-readable string in RFC3339 format.
func formatTimestamp(timestamp float64) string {
	timeObj := time.Unix(int64(timestamp), 0)
	return timeObj.Format(time.RFC3339)
}
