package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the inference service and its model are up",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := newClient().Health(cmd.Context())
		if resp != nil {
			ts := time.Unix(0, int64(resp.Timestamp*float64(time.Second)))
			fmt.Printf("status:    %s\npredictor: %s\nchecked:   %s\n", resp.Status, resp.PredictorStatus, ts.Local().Format(time.RFC3339))
		}
		return err
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the inference service's name, version and endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := newClient().Info(cmd.Context())
		if err != nil {
			return err
		}

		emotions := make([]string, len(info.SupportedEmotions))
		for i, e := range info.SupportedEmotions {
			emotions[i] = e.String()
		}

		fmt.Printf("%s %s (%s)\n", info.Name, info.Version, info.Status)
		fmt.Printf("emotions: %s\n\n", strings.Join(emotions, ", "))

		names := make([]string, 0, len(info.Endpoints))
		for name := range info.Endpoints {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ENDPOINT\tDESCRIPTION")
		for _, name := range names {
			fmt.Fprintf(w, "%s\t%s\n", name, info.Endpoints[name])
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(infoCmd)
}
