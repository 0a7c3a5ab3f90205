package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/makerbench/stlcat/pkg/catalog"
	"github.com/makerbench/stlcat/pkg/service"
)

var (
	entryFileFlag    string
	entryNameFlag    string
	entryTagsFlag    string
	entryRelatedFlag string
	folderMainFlag   string
	entryPathFlag    string
	deleteYesFlag    bool
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage catalog entries",
	Long:  `Add, list, update, and delete entries in the STL catalog.`,
}

var addEntryCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a single STL file to the catalog",
	Long: `Add a single STL file to the catalog with a display name and optional tags.
If the file path is already cataloged, the existing entry is replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if entryFileFlag == "" {
			return errors.New("a file path is required (--file)")
		}

		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		svc := newService(dbConn, "")
		entry, err := svc.AddEntry(cmd.Context(), entryFileFlag, entryNameFlag, splitTagsFlag(entryTagsFlag))
		if err != nil {
			return fmt.Errorf("failed to add entry: %w", err)
		}

		if svc.NotifySuccess() {
			fmt.Printf("Added entry %s (%s)\n", entry.Name, entry.ID)
		}
		return nil
	},
}

var addFolderCmd = &cobra.Command{
	Use:   "add-folder [directory]",
	Short: "Add a folder of STL files as a single multi-part entry",
	Long: `Scan a directory (non-recursively) for STL files and catalog them as one entry.
One file becomes the main file and the rest are recorded as related parts.
The main file can be chosen with --main; otherwise the alphabetically first file is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		svc := newService(dbConn, "")
		entry, err := svc.AddFolder(cmd.Context(), args[0], folderMainFlag, entryNameFlag, splitTagsFlag(entryTagsFlag))
		if errors.Is(err, service.ErrNoSTLFiles) {
			return fmt.Errorf("no STL files found in %s", args[0])
		}
		if errors.Is(err, service.ErrMainFileNotFound) {
			return fmt.Errorf("main file %s not found in %s", folderMainFlag, args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to add folder: %w", err)
		}

		if svc.NotifySuccess() {
			fmt.Printf("Added entry %s (%s, multi-part: %t)\n", entry.Name, entry.ID, entry.IsMultiPart)
		}
		return nil
	},
}

var getEntryCmd = &cobra.Command{
	Use:   "get [entry-id]",
	Short: "Get an entry by ID or file path",
	Long:  `Retrieve an entry, its tags, and its related files by ID, or by main file path with --path.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		var entryID uuid.UUID
		switch {
		case len(args) == 1:
			entryID, err = uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid entry ID: %w", err)
			}
		case entryPathFlag != "":
			entry, err := catalog.GetEntryByPath(cmd.Context(), dbConn, entryPathFlag)
			if errors.Is(err, catalog.ErrEntryNotFound) {
				return fmt.Errorf("no entry cataloged for path: %s", entryPathFlag)
			}
			if err != nil {
				return err
			}
			entryID = entry.ID
		default:
			return errors.New("an entry ID argument or --path is required")
		}

		details, err := catalog.GetEntryDetails(cmd.Context(), dbConn, entryID)
		if errors.Is(err, catalog.ErrEntryNotFound) {
			return fmt.Errorf("entry not found: %s", entryID)
		}
		if err != nil {
			return fmt.Errorf("failed to get entry: %w", err)
		}

		printEntryDetails(details)
		return nil
	},
}

var listEntriesCmd = &cobra.Command{
	Use:   "list [search]",
	Short: "List catalog entries",
	Long: `List entries ordered by name. An optional search term filters entries by a
case-insensitive substring match against entry names and tag names.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		searchTerm := ""
		if len(args) == 1 {
			searchTerm = args[0]
		}

		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		entries, err := catalog.ListEntries(cmd.Context(), dbConn, searchTerm)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries found.")
			return nil
		}
		for _, entry := range entries {
			fmt.Printf("%s  %s  %s\n", entry.ID, entry.Name, entry.FilePath)
		}
		return nil
	},
}

var updateEntryCmd = &cobra.Command{
	Use:   "update [entry-id]",
	Short: "Replace an entry's fields, tags, and related files",
	Long: `Fully replace an existing entry. The provided tag list and related-file list
become the entry's new sets; omitting --tags or --related clears them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid entry ID: %w", err)
		}
		if entryFileFlag == "" {
			return errors.New("a file path is required (--file)")
		}

		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		svc := newService(dbConn, "")
		entry, err := svc.UpdateEntry(cmd.Context(), entryID, entryFileFlag, splitTagsFlag(entryRelatedFlag), entryNameFlag, splitTagsFlag(entryTagsFlag))
		if errors.Is(err, catalog.ErrEntryNotFound) {
			return fmt.Errorf("entry not found: %s", entryID)
		}
		if err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}

		if svc.NotifySuccess() {
			fmt.Printf("Updated entry %s (%s)\n", entry.Name, entry.ID)
		}
		return nil
	},
}

var deleteEntriesCmd = &cobra.Command{
	Use:   "delete [entry-id...]",
	Short: "Delete one or more entries",
	Long: `Delete entries along with their tag links and related files. All deletions
happen in a single transaction. Depending on your settings you will be asked
to confirm; pass --yes to skip the prompt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryIDs := make([]uuid.UUID, 0, len(args))
		for _, arg := range args {
			entryID, err := uuid.Parse(arg)
			if err != nil {
				return fmt.Errorf("invalid entry ID %q: %w", arg, err)
			}
			entryIDs = append(entryIDs, entryID)
		}

		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		svc := newService(dbConn, "")
		if deleteYesFlag {
			svc = service.New(dbConn, settingsWithoutConfirm(), nil, nil, nil)
		}

		err = svc.DeleteEntries(cmd.Context(), entryIDs)
		if errors.Is(err, service.ErrCancelled) {
			fmt.Println("Deletion cancelled.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to delete entries: %w", err)
		}

		if svc.NotifySuccess() {
			fmt.Printf("Deleted %d entries.\n", len(entryIDs))
		}
		return nil
	},
}

func printEntryDetails(details catalog.EntryDetails) {
	fmt.Println("Entry Details:")
	fmt.Printf("ID:         %s\n", details.ID)
	fmt.Printf("Name:       %s\n", details.Name)
	fmt.Printf("File:       %s\n", details.FilePath)
	fmt.Printf("Added:      %s\n", formatTimestamp(details.DateAdded))
	fmt.Printf("Multi-part: %t\n", details.IsMultiPart)
	fmt.Printf("Tags:       %s\n", details.Tags)
	if len(details.RelatedFiles) > 0 {
		fmt.Printf("Related:    %s\n", strings.Join(details.RelatedFiles, ", "))
	}
}

func initEntriesCmd() {
	addEntryCmd.Flags().StringVar(&entryFileFlag, "file", "", "Path to the main STL file")
	addEntryCmd.Flags().StringVar(&entryNameFlag, "name", "", "Display name for the entry")
	addEntryCmd.Flags().StringVar(&entryTagsFlag, "tags", "", "Comma-separated list of tags")

	addFolderCmd.Flags().StringVar(&folderMainFlag, "main", "", "Main STL file within the folder (path or file name)")
	addFolderCmd.Flags().StringVar(&entryNameFlag, "name", "", "Display name (defaults to the folder name)")
	addFolderCmd.Flags().StringVar(&entryTagsFlag, "tags", "", "Comma-separated list of tags")

	getEntryCmd.Flags().StringVar(&entryPathFlag, "path", "", "Look up the entry by its main file path instead of ID")

	updateEntryCmd.Flags().StringVar(&entryFileFlag, "file", "", "Path to the main STL file")
	updateEntryCmd.Flags().StringVar(&entryNameFlag, "name", "", "Display name for the entry")
	updateEntryCmd.Flags().StringVar(&entryTagsFlag, "tags", "", "Comma-separated replacement tag list")
	updateEntryCmd.Flags().StringVar(&entryRelatedFlag, "related", "", "Comma-separated replacement related-file list")

	deleteEntriesCmd.Flags().BoolVar(&deleteYesFlag, "yes", false, "Skip the confirmation prompt")

	entriesCmd.AddCommand(
		addEntryCmd,
		addFolderCmd,
		getEntryCmd,
		listEntriesCmd,
		updateEntryCmd,
		deleteEntriesCmd,
	)
}
