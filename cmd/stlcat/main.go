package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	stlcat "github.com/makerbench/stlcat/pkg"
	pkgdb "github.com/makerbench/stlcat/pkg/db"
	"github.com/makerbench/stlcat/pkg/utils"
)

var (
	dbPath       string
	walMode      bool
	syncMode     string
	settingsPath string
)

var rootCmd = &cobra.Command{
	Use:     "stlcat",
	Short:   "A personal catalog for your STL model collection.",
	Long:    ``,
	Version: fmt.Sprintf("v%s", stlcat.Version),
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionCmd = &cobra.Command{
	Use:   fmt.Sprintf("completion %s", strings.Join(completionShells, "|")),
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for stlcat.

The command prints a completion script to stdout. You can source it in your shell
or install it to the appropriate location for your shell to enable completions permanently.

Examples:

  Bash (current shell):
    $ source <(stlcat completion bash)

  Bash (persist):
    $ stlcat completion bash > /etc/bash_completion.d/stlcat

  Zsh:
    $ stlcat completion zsh > "${fpath[1]}/_stlcat"

  Fish:
    $ stlcat completion fish | source
    $ stlcat completion fish > ~/.config/fish/completions/stlcat.fish

  PowerShell:
    PS> stlcat completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             completionShells,
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of stlcat",
	Long:  `All software has versions. This is stlcat's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(stlcat.Version)
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the stlcat database",
	Long:  `Provides commands for managing the stlcat SQLite database, including schema upgrades.`,
}

var dbUpgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade the stlcat database schema to the latest version for the catalogdb component",
	Long: `Connects to the SQLite database at the specified path (provided with the --db flag) and applies any
necessary schema migrations to bring the catalogdb component up to the current application schema version.
If the database does not exist or is uninitialized for this component, it will be created
and initialized with the latest schema for the catalogdb component.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dbPath == "" {
			return errors.New("database path is required")
		}

		fmt.Printf("Attempting to upgrade catalogdb component in database at: %s (WAL: %t, Sync: %s)\n", dbPath, walMode, syncMode)

		dbConn, err := pkgdb.OpenDBConnection(dbPath, walMode, syncMode)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		return pkgdb.UpgradeDB(dbConn, dbPath, pkgdb.TargetSchemaVersion)
	},
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", fmt.Sprintf("Path to the database file (defaults to %s)", utils.DefaultDBPath()))
	rootCmd.PersistentFlags().BoolVar(&walMode, "wal", true, "Enable SQLite WAL (Write-Ahead Logging) mode")
	rootCmd.PersistentFlags().StringVar(&syncMode, "sync", "NORMAL", "SQLite synchronous pragma (OFF, NORMAL, FULL, EXTRA)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", fmt.Sprintf("Path to the settings file (defaults to %s)", utils.DefaultSettingsPath()))

	dbUpgradeCmd.MarkFlagRequired("db")
	dbCmd.AddCommand(dbUpgradeCmd)

	initEntriesCmd()
	initTagsCmd()
	initTransferCmd()
	initViewCmd()
	initSettingsCmd()
	rootCmd.AddCommand(completionCmd, versionCmd, dbCmd, entriesCmd, tagsCmd, exportCmd, importCmd, viewCmd, settingsCmd, mcpCmd)
}

func main() {
	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
