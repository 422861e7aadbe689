package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/eleven-am/emotion-monitor/internal/detection"
	"github.com/eleven-am/emotion-monitor/internal/frame"
	"github.com/eleven-am/emotion-monitor/internal/inference"
	"github.com/spf13/cobra"
)

type predictOptions struct {
	raw       bool
	asJSON    bool
	maxWidth  int
	maxHeight int
	quality   int
}

var predictOpts predictOptions

var predictCmd = &cobra.Command{
	Use:   "predict <image>...",
	Short: "Detect faces and emotions in image files",
	Long: `Detect faces and emotions in one or more images.

By default each image is downscaled the way the live loop does before it is
sent as a data URL. With --raw the file is uploaded unchanged as multipart.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		for _, path := range args {
			result, err := predictFile(cmd, client, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := printResult(cmd.OutOrStdout(), path, result); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	predictCmd.Flags().BoolVar(&predictOpts.raw, "raw", false, "upload the file unchanged via /predict_file")
	predictCmd.Flags().BoolVar(&predictOpts.asJSON, "json", false, "print the raw response as JSON")
	predictCmd.Flags().IntVar(&predictOpts.maxWidth, "max-width", frame.DefaultMaxWidth, "maximum width sent to the service")
	predictCmd.Flags().IntVar(&predictOpts.maxHeight, "max-height", frame.DefaultMaxHeight, "maximum height sent to the service")
	predictCmd.Flags().IntVar(&predictOpts.quality, "quality", frame.DefaultQuality, "JPEG quality for the downscaled frame")
	rootCmd.AddCommand(predictCmd)
}

func predictFile(cmd *cobra.Command, client *inference.Client, path string) (*inference.DetectionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if predictOpts.raw {
		return client.SubmitFile(cmd.Context(), filepath.Base(path), data)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	prepared, err := frame.Prepare(img, predictOpts.maxWidth, predictOpts.maxHeight, predictOpts.quality)
	if err != nil {
		return nil, err
	}
	return client.Submit(cmd.Context(), prepared.JPEG)
}

func printResult(out io.Writer, path string, result *inference.DetectionResult) error {
	if predictOpts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "%s: %d face(s), %s server time\n", path, result.FacesDetected, result.ServerDuration())
	if !result.HasFaces() {
		fmt.Fprintln(out, "  no faces detected")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FACE\tEMOTION\tCONFIDENCE\tBOX")
	for _, f := range result.Faces {
		b := f.BoundingBox
		fmt.Fprintf(w, "%d\t%s\t%d%%\t%d,%d %dx%d\n", f.FaceID, f.Emotion, detection.Percent(f.Confidence), b.X, b.Y, b.Width, b.Height)
	}
	return w.Flush()
}
