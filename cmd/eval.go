package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/vinfotechlanceai/smartstep/internal/analysis"
	"github.com/vinfotechlanceai/smartstep/internal/config"
	"github.com/vinfotechlanceai/smartstep/internal/eval"
	"github.com/vinfotechlanceai/smartstep/internal/eval/dataset"
	"github.com/vinfotechlanceai/smartstep/internal/eval/results"
)

func newEvalCmd() *cobra.Command {
	var (
		datasetPath string
		imageDir    string
		provider    string
		sampleSize  int
		outputDir   string
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate arch classification accuracy against a labeled dataset",
		Long: `Runs the analysis pipeline over a labeled dataset of foot images and
reports how often the predicted arch type matches the expected label.

Datasets are parquet or JSONL files whose records reference image files
relative to --images. Results are written as timestamped YAML reports.`,
		Example: `  # Evaluate 20 sampled records with the default provider
  smartstep eval --dataset cases.parquet --images ./photos --sample 20

  # Full run against OpenAI
  smartstep eval --dataset cases.jsonl --images ./photos --provider openai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			slog.Info("Loading dataset", "path", datasetPath)
			records, err := dataset.NewLoader(datasetPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}
			slog.Info("Dataset loaded", "records", len(records))

			p, err := newProvider(cfg, provider)
			if err != nil {
				return err
			}

			runner := eval.NewRunner(analysis.NewService(p), p.Name(), imageDir)
			report := runner.Run(cmd.Context(), datasetPath, records, sampleSize)

			path, err := results.SaveToYAML(report, outputDir)
			if err != nil {
				return fmt.Errorf("failed to save results: %w", err)
			}

			fmt.Printf("Evaluated %d records: %d succeeded, %d failed\n", report.Total, report.Succeeded, report.Failed)
			fmt.Printf("Arch accuracy: %.1f%%  Average confidence: %.1f\n", report.ArchAccuracy*100, report.AverageConfidence)
			fmt.Printf("\nResults saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the dataset file (.parquet or .jsonl)")
	cmd.Flags().StringVar(&imageDir, "images", ".", "Directory holding the dataset's image files")
	cmd.Flags().StringVar(&provider, "provider", "", "Analysis provider to use (gemini or openai)")
	cmd.Flags().IntVar(&sampleSize, "sample", 0, "Evaluate only the first N records (0 = all)")
	cmd.Flags().StringVar(&outputDir, "output", "evals", "Directory to write YAML reports into")

	if err := cmd.MarkFlagRequired("dataset"); err != nil {
		slog.Error("Unable to mark dataset flag required", "err", err)
	}

	return cmd
}
