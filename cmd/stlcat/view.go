package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/makerbench/stlcat/pkg/catalog"
	"github.com/makerbench/stlcat/pkg/viewer"
)

var (
	viewerExecFlag     string
	viewerColorFlag    string
	viewerBgFlag       string
	viewerRotationFlag string
	viewerZoomFlag     float64
	viewerAxesFlag     bool
)

var viewCmd = &cobra.Command{
	Use:   "view [entry-id]",
	Short: "Open an entry's STL file in the external viewer",
	Long: `Launch the external STL viewer for an entry's main file. The viewer runs
detached; stlcat does not wait for it to exit. Rendering options are passed
to the viewer as a JSON settings bundle.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid entry ID: %w", err)
		}

		vs, err := viewerSettingsFromFlags()
		if err != nil {
			return err
		}

		dbConn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer dbConn.Close()

		svc := newService(dbConn, viewerExecFlag)
		err = svc.View(cmd.Context(), entryID, vs)
		if errors.Is(err, catalog.ErrEntryNotFound) {
			return fmt.Errorf("entry not found: %s", entryID)
		}
		if errors.Is(err, viewer.ErrFileNotFound) {
			return errors.New("the entry's main file no longer exists on disk")
		}
		if errors.Is(err, viewer.ErrNotSTLFile) {
			return errors.New("the entry's main file is not an STL file")
		}
		if err != nil {
			return fmt.Errorf("failed to launch viewer: %w", err)
		}
		return nil
	},
}

// viewerSettingsFromFlags builds viewer settings from the command flags,
// starting from the defaults.
func viewerSettingsFromFlags() (viewer.Settings, error) {
	vs := viewer.DefaultSettings()

	if viewerColorFlag != "" {
		color, err := parseRGBA(viewerColorFlag)
		if err != nil {
			return vs, fmt.Errorf("invalid --color: %w", err)
		}
		vs.Color = color
	}
	if viewerBgFlag != "" {
		bg, err := parseRGBA(viewerBgFlag)
		if err != nil {
			return vs, fmt.Errorf("invalid --bg: %w", err)
		}
		vs.BackgroundColor = bg
	}
	if viewerRotationFlag != "" {
		rotation, err := parseRotation(viewerRotationFlag)
		if err != nil {
			return vs, fmt.Errorf("invalid --rotation: %w", err)
		}
		vs.Rotation = rotation
	}
	if viewerZoomFlag > 0 {
		vs.ZoomFactor = viewerZoomFlag
	}
	vs.ShowAxes = viewerAxesFlag

	return vs, nil
}

// parseRGBA parses "r,g,b" or "r,g,b,a" with components in 0-255.
// Alpha defaults to 255 when omitted.
func parseRGBA(raw string) ([4]uint8, error) {
	var rgba [4]uint8
	parts := strings.Split(raw, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return rgba, fmt.Errorf("expected r,g,b or r,g,b,a, got %q", raw)
	}
	rgba[3] = 255
	for i, part := range parts {
		value, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return rgba, fmt.Errorf("component %d: %w", i, err)
		}
		rgba[i] = uint8(value)
	}
	return rgba, nil
}

// parseRotation parses "x,y,z" rotation angles in degrees.
func parseRotation(raw string) ([3]float64, error) {
	var rotation [3]float64
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return rotation, fmt.Errorf("expected x,y,z, got %q", raw)
	}
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return rotation, fmt.Errorf("component %d: %w", i, err)
		}
		rotation[i] = value
	}
	return rotation, nil
}

func initViewCmd() {
	viewCmd.Flags().StringVar(&viewerExecFlag, "viewer", viewer.DefaultExecutable, "Viewer executable to launch")
	viewCmd.Flags().StringVar(&viewerColorFlag, "color", "", "Model color as r,g,b[,a] (0-255 components)")
	viewCmd.Flags().StringVar(&viewerBgFlag, "bg", "", "Background color as r,g,b[,a] (0-255 components)")
	viewCmd.Flags().StringVar(&viewerRotationFlag, "rotation", "", "Initial rotation as x,y,z degrees")
	viewCmd.Flags().Float64Var(&viewerZoomFlag, "zoom", 0, "Zoom factor (default 1.0)")
	viewCmd.Flags().BoolVar(&viewerAxesFlag, "axes", false, "Show coordinate axes")
}
