package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vinfotechlanceai/smartstep/internal/analysis"
	"github.com/vinfotechlanceai/smartstep/internal/capture"
	"github.com/vinfotechlanceai/smartstep/internal/config"
	"github.com/vinfotechlanceai/smartstep/internal/consult"
	"github.com/vinfotechlanceai/smartstep/internal/images"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		topPath  string
		sidePath string
		backPath string
		provider string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a one-shot analysis on foot images from disk",
		Long: `Analyzes up to three foot photographs without starting the web interface.

Each flag assigns a file to one of the fixed view slots. At least one
view must be provided; missing views are reported to the model so it can
scope its assessment accordingly.`,
		Example: `  # Full three-view analysis
  smartstep analyze --top top.jpg --side side.jpg --back back.jpg

  # Side view only
  smartstep analyze --side side.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			set := capture.ImageSet{}
			paths := map[capture.View]string{
				capture.ViewTop:  topPath,
				capture.ViewSide: sidePath,
				capture.ViewBack: backPath,
			}
			for _, view := range capture.Views {
				path := paths[view]
				if path == "" {
					continue
				}
				img, err := loadImage(path)
				if err != nil {
					return fmt.Errorf("failed to load %s view: %w", view, err)
				}
				set[view] = img
			}

			p, err := newProvider(cfg, provider)
			if err != nil {
				return err
			}

			service := analysis.NewService(p)
			result, err := service.Analyze(cmd.Context(), set)
			if err != nil {
				return err
			}

			fmt.Println(consult.RenderSummary(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&topPath, "top", "", "Path to the top (dorsal) view image")
	cmd.Flags().StringVar(&sidePath, "side", "", "Path to the side (medial profile) view image")
	cmd.Flags().StringVar(&backPath, "back", "", "Path to the back (posterior) view image")
	cmd.Flags().StringVar(&provider, "provider", "", "Analysis provider to use (gemini or openai)")

	return cmd
}

// loadImage reads a file and verifies it is a supported image format.
func loadImage(path string) (*capture.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format, err := images.Sniff(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &capture.Image{MIME: format.MIME(), Data: data}, nil
}
