package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/makerbench/stlcat/pkg/service"
)

var (
	importReplaceFlag bool
	importYesFlag     bool
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the catalog to a JSON file",
	Long: `Write the catalog to a JSON document keyed by file path. Related-file lists
are not part of the document; they are rebuilt from disk when re-importing folders.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		svc := newService(dbConn, "")
		if err := svc.ExportFile(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to export catalog: %w", err)
		}

		if svc.NotifySuccess() {
			fmt.Printf("Catalog exported to %s\n", args[0])
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a catalog from a JSON file",
	Long: `Read a JSON catalog document and merge it into the catalog. With --replace the
existing catalog is cleared first, keeping only the built-in default tags.
Replacing asks for confirmation; pass --yes to skip the prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		svc := newService(dbConn, "")
		if importYesFlag {
			svc = service.New(dbConn, settingsWithoutConfirm(), nil, nil, nil)
		}

		err = svc.ImportFile(cmd.Context(), args[0], importReplaceFlag)
		if errors.Is(err, service.ErrCancelled) {
			fmt.Println("Import cancelled.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to import catalog: %w", err)
		}

		if svc.NotifySuccess() {
			fmt.Printf("Catalog imported from %s (replace: %t)\n", args[0], importReplaceFlag)
		}
		return nil
	},
}

func initTransferCmd() {
	importCmd.Flags().BoolVar(&importReplaceFlag, "replace", false, "Clear the existing catalog before importing")
	importCmd.Flags().BoolVar(&importYesFlag, "yes", false, "Skip the confirmation prompt when replacing")
}
