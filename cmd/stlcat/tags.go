package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/makerbench/stlcat/pkg/catalog"
)

var tagDeleteYesFlag bool

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage catalog tags",
	Long:  `List, add, rename, and delete the tags used to organize catalog entries.`,
}

var listTagsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tags alphabetically",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		names, err := catalog.ListTagNames(cmd.Context(), dbConn)
		if err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}

		if len(names) == 0 {
			fmt.Println("No tags found.")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var addTagCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a tag",
	Long:  `Add a tag to the catalog. Adding a tag that already exists is a no-op.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		err = catalog.AddTag(cmd.Context(), dbConn, args[0])
		if errors.Is(err, catalog.ErrEmptyTagName) {
			return errors.New("tag name must not be empty")
		}
		if err != nil {
			return fmt.Errorf("failed to add tag: %w", err)
		}

		fmt.Printf("Tag '%s' is present.\n", args[0])
		return nil
	},
}

var renameTagCmd = &cobra.Command{
	Use:   "rename [old-name] [new-name]",
	Short: "Rename a tag, merging if the new name already exists",
	Long: `Rename a tag across every entry that uses it. If the new name already exists,
the two tags are merged and no entry ends up with duplicate links.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		err = catalog.RenameTag(cmd.Context(), dbConn, args[0], args[1])
		if errors.Is(err, catalog.ErrTagNotFound) {
			return fmt.Errorf("tag not found: %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to rename tag: %w", err)
		}

		fmt.Printf("Tag '%s' renamed to '%s'.\n", args[0], args[1])
		return nil
	},
}

var deleteTagCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a tag and remove it from every entry",
	Long: `Delete a tag. The tag is removed from every entry that uses it; the entries
themselves are kept. If the tag is in use you will be asked to confirm,
unless --yes is passed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		usage, err := catalog.TagUsageCount(cmd.Context(), dbConn, args[0])
		if err != nil {
			return fmt.Errorf("failed to count tag usage: %w", err)
		}
		if usage > 0 && !tagDeleteYesFlag {
			prompt := fmt.Sprintf("Tag '%s' is used by %d entries. Delete it anyway?", args[0], usage)
			if !promptConfirm(prompt) {
				fmt.Println("Deletion cancelled.")
				return nil
			}
		}

		if err := catalog.DeleteTag(cmd.Context(), dbConn, args[0]); err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}

		fmt.Printf("Tag '%s' deleted.\n", args[0])
		return nil
	},
}

var tagUsageCmd = &cobra.Command{
	Use:   "usage [name]",
	Short: "Show how many entries use a tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		usage, err := catalog.TagUsageCount(cmd.Context(), dbConn, args[0])
		if err != nil {
			return fmt.Errorf("failed to count tag usage: %w", err)
		}

		fmt.Printf("%d\n", usage)
		return nil
	},
}

func initTagsCmd() {
	deleteTagCmd.Flags().BoolVar(&tagDeleteYesFlag, "yes", false, "Skip the confirmation prompt")

	tagsCmd.AddCommand(
		listTagsCmd,
		addTagCmd,
		renameTagCmd,
		deleteTagCmd,
		tagUsageCmd,
	)
}
