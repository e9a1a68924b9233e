package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vinfotechlanceai/smartstep/internal/eval"
)

// SaveToYAML writes an evaluation report to a timestamped YAML file in the
// given directory and returns the file path.
func SaveToYAML(report *eval.Report, dir string) (string, error) {
	if dir == "" {
		dir = "evals"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	timestamp := report.EvaluatedAt.Format("2006-01-02_15-04-05")
	if report.EvaluatedAt.IsZero() {
		timestamp = time.Now().Format("2006-01-02_15-04-05")
	}
	path := filepath.Join(dir, fmt.Sprintf("eval_%s_%s.yaml", report.Provider, timestamp))

	data, err := yaml.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
