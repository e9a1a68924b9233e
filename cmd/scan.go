package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vinfotechlanceai/smartstep/internal/analysis"
	"github.com/vinfotechlanceai/smartstep/internal/camera"
	"github.com/vinfotechlanceai/smartstep/internal/capture"
	"github.com/vinfotechlanceai/smartstep/internal/config"
	"github.com/vinfotechlanceai/smartstep/internal/consult"
)

func newScanCmd() *cobra.Command {
	var runAnalysis bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a guided three-view foot scan from a webcam",
		Long: `Walks through the guided capture sequence on an attached webcam:
top view, then side view, then back view. Press Enter at each step to
capture the current frame.

With --analyze the captured set is sent for analysis once the scan
completes.`,
		Example: `  # Capture three views and print the analysis
  smartstep scan --analyze

  # Capture only, using the second camera device
  CAMERA_DEVICE=1 smartstep scan`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			cam := camera.NewWebcam(camera.Config{
				DeviceID: cfg.CameraDevice,
				Width:    cfg.CameraWidth,
				Height:   cfg.CameraHeight,
			})

			session := capture.NewScanSession(cam)
			defer session.Close()

			if err := session.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start scan: %w", err)
			}

			reader := bufio.NewReader(os.Stdin)
			for {
				phase := session.Phase()
				view, ok := phase.View()
				if !ok {
					break
				}

				fmt.Printf("Position the %s of the foot in frame and press Enter to capture...", view)
				if _, err := reader.ReadString('\n'); err != nil {
					return err
				}

				if _, err := session.Capture(); err != nil {
					return fmt.Errorf("capture failed during %s view: %w", view, err)
				}
				if session.Phase() == phase {
					fmt.Println("Camera is still warming up, try again.")
					continue
				}
				fmt.Printf("Captured %s view.\n", view)
			}

			set := session.Images()
			fmt.Printf("Scan complete: %d of %d views captured.\n", len(set.Provided()), len(capture.Views))

			if !runAnalysis {
				return nil
			}

			provider, err := newProvider(cfg, "")
			if err != nil {
				return err
			}
			result, err := analysis.NewService(provider).Analyze(cmd.Context(), set)
			if err != nil {
				return err
			}
			fmt.Println(consult.RenderSummary(result))
			return nil
		},
	}

	cmd.Flags().BoolVar(&runAnalysis, "analyze", false, "Analyze the captured set after the scan completes")

	return cmd
}
