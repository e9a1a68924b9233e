// Package eval measures analyzer accuracy against a labeled dataset of
// foot photographs.
package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vinfotechlanceai/smartstep/internal/analysis"
	"github.com/vinfotechlanceai/smartstep/internal/capture"
	"github.com/vinfotechlanceai/smartstep/internal/eval/dataset"
	"github.com/vinfotechlanceai/smartstep/internal/images"
)

// RecordResult is the outcome for a single labeled case.
type RecordResult struct {
	ID            string            `yaml:"id"`
	ExpectedArch  analysis.ArchType `yaml:"expectedarch"`
	PredictedArch analysis.ArchType `yaml:"predictedarch,omitempty"`
	Confidence    float64           `yaml:"confidence,omitempty"`
	Correct       bool              `yaml:"correct"`
	Duration      time.Duration     `yaml:"duration"`
	Error         string            `yaml:"error,omitempty"`
}

// Report aggregates an evaluation run.
type Report struct {
	Provider    string    `yaml:"provider"`
	DatasetPath string    `yaml:"datasetpath"`
	SampleSize  int       `yaml:"samplesize"`
	EvaluatedAt time.Time `yaml:"evaluatedat"`

	Total     int `yaml:"total"`
	Succeeded int `yaml:"succeeded"`
	Failed    int `yaml:"failed"`
	Correct   int `yaml:"correct"`

	ArchAccuracy      float64 `yaml:"archaccuracy"`
	AverageConfidence float64 `yaml:"averageconfidence"`

	Results []RecordResult `yaml:"results"`
}

// Runner evaluates the analysis service over dataset records.
type Runner struct {
	service  *analysis.Service
	provider string
	imageDir string
}

// NewRunner creates a runner. imageDir is the directory record image paths
// are resolved against.
func NewRunner(service *analysis.Service, provider, imageDir string) *Runner {
	return &Runner{service: service, provider: provider, imageDir: imageDir}
}

// Run evaluates up to sampleSize records (all of them when sampleSize <= 0)
// and aggregates accuracy. Per-record failures are recorded, not fatal.
func (r *Runner) Run(ctx context.Context, datasetPath string, records []dataset.Record, sampleSize int) *Report {
	if sampleSize > 0 && sampleSize < len(records) {
		records = records[:sampleSize]
	}

	report := &Report{
		Provider:    r.provider,
		DatasetPath: datasetPath,
		SampleSize:  len(records),
		EvaluatedAt: time.Now(),
		Total:       len(records),
	}

	var confidenceSum float64
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			slog.Warn("Evaluation interrupted", "completed", i, "total", len(records))
			break
		}

		result := r.evalRecord(ctx, rec)
		report.Results = append(report.Results, result)

		if result.Error != "" {
			report.Failed++
			continue
		}
		report.Succeeded++
		confidenceSum += result.Confidence
		if result.Correct {
			report.Correct++
		}

		slog.Info("Evaluated case", "id", rec.ID, "expected", rec.ExpectedArch,
			"predicted", result.PredictedArch, "correct", result.Correct,
			"progress", fmt.Sprintf("%d/%d", i+1, len(records)))
	}

	if report.Succeeded > 0 {
		report.ArchAccuracy = float64(report.Correct) / float64(report.Succeeded)
		report.AverageConfidence = confidenceSum / float64(report.Succeeded)
	}
	return report
}

func (r *Runner) evalRecord(ctx context.Context, rec dataset.Record) RecordResult {
	result := RecordResult{
		ID:           rec.ID,
		ExpectedArch: analysis.ArchType(rec.ExpectedArch),
	}

	set, err := r.loadImageSet(rec)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	analysisResult, err := r.service.Analyze(ctx, set)
	result.Duration = time.Since(start)
	if err != nil {
		if errors.Is(err, analysis.ErrNoImages) {
			result.Error = "record has no usable images"
		} else {
			result.Error = err.Error()
		}
		return result
	}

	result.PredictedArch = analysisResult.ArchType
	result.Confidence = analysisResult.ConfidenceScore
	result.Correct = result.PredictedArch == result.ExpectedArch
	return result
}

func (r *Runner) loadImageSet(rec dataset.Record) (capture.ImageSet, error) {
	set := make(capture.ImageSet)
	paths := map[capture.View]string{
		capture.ViewTop:  rec.TopImage,
		capture.ViewSide: rec.SideImage,
		capture.ViewBack: rec.BackImage,
	}

	for view, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.imageDir, path))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s image: %w", view, err)
		}
		format, err := images.Sniff(data)
		if err != nil {
			return nil, fmt.Errorf("%s image is not a supported raster: %w", view, err)
		}
		set[view] = &capture.Image{MIME: format.MIME(), Data: data}
	}
	return set, nil
}
