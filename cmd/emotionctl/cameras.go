package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/eleven-am/emotion-monitor/internal/camera"
	"github.com/spf13/cobra"
)

var (
	cameraDriver string
	stillPath    string
)

var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "List the cameras the selected driver can open",
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, err := newDriver(cmd)
		if err != nil {
			return err
		}

		devices, err := driver.Enumerate(cmd.Context())
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Printf("no cameras found (driver %s)\n", driver.Name())
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL")
		for _, d := range devices {
			fmt.Fprintf(w, "%s\t%s\n", d.ID, d.Label)
		}
		return w.Flush()
	},
}

func addCameraFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cameraDriver, "driver", envString("CAMERA_DRIVER", "ffmpeg"), "camera driver ("+strings.Join(camera.Drivers(), ", ")+")")
	cmd.Flags().StringVar(&stillPath, "still", "", "image file served by the still driver")
}

// newDriver picks the still driver when --still is given without an
// explicit --driver.
func newDriver(cmd *cobra.Command) (camera.Driver, error) {
	name := cameraDriver
	if stillPath != "" && !cmd.Flags().Changed("driver") {
		name = "still"
	}
	return camera.NewDriver(name, camera.DriverConfig{StillPath: stillPath}, newLogger())
}

func init() {
	addCameraFlags(camerasCmd)
	rootCmd.AddCommand(camerasCmd)
}
