package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vinfotechlanceai/smartstep/internal/capture"
)

// ErrNoImages is the local precondition failure for an empty ImageSet. The
// remote provider is never invoked in this case.
var ErrNoImages = errors.New("no images provided: attach at least one foot photograph before requesting analysis")

// ErrAnalysisFailed is the single user-facing error for every remote or
// parse failure. The underlying cause is written to the operational log
// only.
var ErrAnalysisFailed = errors.New("analysis failed: the service may be unavailable or the images could not be processed")

// LabeledImage is one encoded image with its view label, ready for
// transport.
type LabeledImage struct {
	Label string
	MIME  string
	Data  []byte
}

// Request is the provider-agnostic analysis request: one instruction text
// plus the labeled images.
type Request struct {
	Prompt string
	Images []LabeledImage
}

// Provider submits an analysis request to a remote model and returns the
// raw response body, expected to be JSON conforming to the result schema.
type Provider interface {
	Name() string
	AnalyzeImages(ctx context.Context, req Request) ([]byte, error)
}

// Service turns an ImageSet into an AnalysisResult or a single normalized
// error. There is no retry and no caching: every call re-sends all images.
type Service struct {
	provider Provider
}

// NewService creates an analysis service over the given provider.
func NewService(p Provider) *Service {
	return &Service{provider: p}
}

// Analyze submits the populated slots of the set for analysis. The result
// is all-or-nothing: no partial result is ever returned.
func (s *Service) Analyze(ctx context.Context, set capture.ImageSet) (*Result, error) {
	provided := set.Provided()
	if len(provided) == 0 {
		return nil, ErrNoImages
	}

	req := Request{Prompt: BuildPrompt(provided)}
	for _, v := range provided {
		img := set[v]
		req.Images = append(req.Images, LabeledImage{
			Label: string(v),
			MIME:  img.MIME,
			Data:  img.Data,
		})
	}

	raw, err := s.provider.AnalyzeImages(ctx, req)
	if err != nil {
		slog.Error("Analysis request failed", "provider", s.provider.Name(), "views", len(provided), "err", err)
		return nil, ErrAnalysisFailed
	}

	result, err := ParseResult(raw)
	if err != nil {
		slog.Error("Analysis response rejected", "provider", s.provider.Name(), "err", err)
		return nil, ErrAnalysisFailed
	}

	slog.Info("Analysis completed", "provider", s.provider.Name(),
		"arch", result.ArchType, "issues", len(result.PotentialIssues),
		"confidence", result.ConfidenceScore)
	return result, nil
}
