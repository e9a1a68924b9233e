package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vinfotechlanceai/smartstep/internal/capture"
)

const validBody = `{
	"archType": "Flat",
	"potentialIssues": [
		{"issue": "Overpronation", "severity": "Moderate", "description": "Inward roll visible at the ankle."}
	],
	"summary": "Flat arch with moderate overpronation.",
	"clinicalRecommendations": ["Consider a gait assessment."],
	"footwearSuggestions": ["Motion-control running shoes."],
	"confidenceScore": 72
}`

type stubProvider struct {
	body    string
	err     error
	calls   int
	lastReq Request
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) AnalyzeImages(ctx context.Context, req Request) ([]byte, error) {
	p.calls++
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return []byte(p.body), nil
}

func sideOnlySet() capture.ImageSet {
	return capture.ImageSet{
		capture.ViewSide: &capture.Image{MIME: "image/jpeg", Data: []byte{0xff, 0xd8}},
	}
}

func TestAnalyzeEmptySetFailsLocally(t *testing.T) {
	p := &stubProvider{body: validBody}
	svc := NewService(p)

	_, err := svc.Analyze(context.Background(), capture.ImageSet{})
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("Analyze(empty) = %v, want ErrNoImages", err)
	}
	if p.calls != 0 {
		t.Errorf("provider invoked %d times for empty set, want 0", p.calls)
	}
}

func TestAnalyzeRequestListsProvidedViews(t *testing.T) {
	p := &stubProvider{body: validBody}
	svc := NewService(p)

	if _, err := svc.Analyze(context.Background(), sideOnlySet()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(p.lastReq.Images) != 1 || p.lastReq.Images[0].Label != "side" {
		t.Fatalf("request images = %+v, want one image labeled side", p.lastReq.Images)
	}
	prompt := p.lastReq.Prompt
	if !strings.Contains(prompt, "Provided views: side.") {
		t.Errorf("prompt does not list side as the only provided view:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Missing views: top, back.") {
		t.Errorf("prompt does not declare top and back missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"Unknown"`) {
		t.Errorf("prompt does not instruct Unknown for absent views:\n%s", prompt)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	p := &stubProvider{body: validBody}
	svc := NewService(p)

	res, err := svc.Analyze(context.Background(), sideOnlySet())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.ArchType != ArchFlat {
		t.Errorf("ArchType = %s, want Flat", res.ArchType)
	}
	if len(res.PotentialIssues) != 1 || res.PotentialIssues[0].Severity != SeverityModerate {
		t.Errorf("PotentialIssues = %+v", res.PotentialIssues)
	}
	if res.ConfidenceScore != 72 {
		t.Errorf("ConfidenceScore = %v, want 72", res.ConfidenceScore)
	}
}

func TestAnalyzeFailuresNormalized(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{name: "transport failure", err: errors.New("connection refused")},
		{name: "not JSON", body: "service temporarily unavailable"},
		{name: "missing confidenceScore", body: `{"archType":"Normal","potentialIssues":[],"summary":"ok","clinicalRecommendations":[],"footwearSuggestions":[]}`},
		{name: "missing archType", body: `{"potentialIssues":[],"summary":"ok","clinicalRecommendations":[],"footwearSuggestions":[],"confidenceScore":50}`},
		{name: "missing potentialIssues", body: `{"archType":"Normal","summary":"ok","clinicalRecommendations":[],"footwearSuggestions":[],"confidenceScore":50}`},
		{name: "missing summary", body: `{"archType":"Normal","potentialIssues":[],"clinicalRecommendations":[],"footwearSuggestions":[],"confidenceScore":50}`},
		{name: "missing clinicalRecommendations", body: `{"archType":"Normal","potentialIssues":[],"summary":"ok","footwearSuggestions":[],"confidenceScore":50}`},
		{name: "missing footwearSuggestions", body: `{"archType":"Normal","potentialIssues":[],"summary":"ok","clinicalRecommendations":[],"confidenceScore":50}`},
		{name: "unknown arch enum", body: `{"archType":"Cavus","potentialIssues":[],"summary":"ok","clinicalRecommendations":[],"footwearSuggestions":[],"confidenceScore":50}`},
		{name: "unknown severity enum", body: `{"archType":"Normal","potentialIssues":[{"issue":"x","severity":"Critical","description":"y"}],"summary":"ok","clinicalRecommendations":[],"footwearSuggestions":[],"confidenceScore":50}`},
		{name: "confidence out of range", body: `{"archType":"Normal","potentialIssues":[],"summary":"ok","clinicalRecommendations":[],"footwearSuggestions":[],"confidenceScore":150}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&stubProvider{body: tt.body, err: tt.err})
			res, err := svc.Analyze(context.Background(), sideOnlySet())
			if !errors.Is(err, ErrAnalysisFailed) {
				t.Fatalf("Analyze = (%v, %v), want ErrAnalysisFailed", res, err)
			}
			if res != nil {
				t.Errorf("partial result returned alongside failure")
			}
		})
	}
}

func TestParseResultStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validBody + "\n```"
	res, err := ParseResult([]byte(fenced))
	if err != nil {
		t.Fatalf("ParseResult(fenced): %v", err)
	}
	if res.ArchType != ArchFlat {
		t.Errorf("ArchType = %s, want Flat", res.ArchType)
	}
}
