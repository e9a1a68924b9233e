package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smartstep",
		Short: "Foot image capture and AI-powered podiatric analysis",
		Long: `SmartStep captures foot photographs (top, side and back views) and sends
them to a vision-capable LLM for a structured podiatric assessment.

It serves a web interface for manual upload-and-tag or guided webcam capture,
and a CLI for one-shot analysis and accuracy evaluation.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}
