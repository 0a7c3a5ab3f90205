package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/makerbench/stlcat/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long:  `Show and change the persisted stlcat settings (stored as a JSON file).`,
}

var showSettingsCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		st := settings.Load(resolveSettingsPath())

		fmt.Printf("show_success_messages:    %t\n", st.ShowSuccessMessages)
		fmt.Printf("confirm_delete:           %t\n", st.ConfirmDelete)
		fmt.Printf("remember_window_geometry: %t\n", st.RememberWindowGeometry)
		fmt.Printf("window_geometry:          %s\n", st.WindowGeometry)
		fmt.Printf("window_maximized:         %t\n", st.WindowMaximized)
		return nil
	},
}

var setSettingCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting and save it",
	Long: `Change one setting and write the settings file. Boolean keys take true/false.

Keys: show_success_messages, confirm_delete, remember_window_geometry,
window_geometry, window_maximized`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		st := settings.Load(resolveSettingsPath())

		parseBool := func() (bool, error) {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return false, fmt.Errorf("setting %q expects true or false, got %q", key, value)
			}
			return b, nil
		}

		var err error
		switch key {
		case "show_success_messages":
			st.ShowSuccessMessages, err = parseBool()
		case "confirm_delete":
			st.ConfirmDelete, err = parseBool()
		case "remember_window_geometry":
			st.RememberWindowGeometry, err = parseBool()
		case "window_geometry":
			st.WindowGeometry = value
		case "window_maximized":
			st.WindowMaximized, err = parseBool()
		default:
			return fmt.Errorf("unknown setting: %s", key)
		}
		if err != nil {
			return err
		}

		if err := settings.Save(resolveSettingsPath(), st); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Printf("Saved %s = %s\n", key, value)
		return nil
	},
}

var resetSettingsCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all settings to their defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := settings.Save(resolveSettingsPath(), settings.Default()); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("Settings reset to defaults.")
		return nil
	},
}

func initSettingsCmd() {
	settingsCmd.AddCommand(showSettingsCmd, setSettingCmd, resetSettingsCmd)
}
