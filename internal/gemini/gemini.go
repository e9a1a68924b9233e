// Package gemini implements the analysis provider over Google Gemini with
// a schema-constrained JSON response.
package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vinfotechlanceai/smartstep/internal/analysis"
)

// Gemini is an analysis provider backed by Google Gemini
type Gemini struct {
	model string
}

// New returns a new Gemini provider for the given model
func New(model string) *Gemini {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{model: model}
}

// Name identifies the provider in logs
func (g *Gemini) Name() string { return "gemini" }

// AnalyzeImages sends the instruction and labeled images to Gemini and
// returns the raw JSON response body.
func (g *Gemini) AnalyzeImages(ctx context.Context, req analysis.Request) ([]byte, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	temperature := float32(0.2)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   resultSchema(),
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts,
			genai.Text(fmt.Sprintf("Foot view: %s", img.Label)),
			genai.Blob{MIMEType: img.MIME, Data: img.Data},
		)
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return []byte(txt), nil
	}

	return nil, fmt.Errorf("unexpected response format from Gemini")
}

// resultSchema declares the strict output shape so the response is
// machine-parseable without text scraping.
func resultSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"archType": {
				Type: genai.TypeString,
				Enum: []string{"Normal", "Flat", "High", "Unknown"},
			},
			"potentialIssues": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"issue": {Type: genai.TypeString},
						"severity": {
							Type: genai.TypeString,
							Enum: []string{"Mild", "Moderate", "Severe", "Unknown"},
						},
						"description": {Type: genai.TypeString},
					},
					Required: []string{"issue", "severity", "description"},
				},
			},
			"summary": {Type: genai.TypeString},
			"clinicalRecommendations": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"footwearSuggestions": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"confidenceScore": {
				Type:        genai.TypeNumber,
				Description: "Joint confidence over image quality and view completeness, 0 to 100.",
			},
		},
		Required: []string{
			"archType", "potentialIssues", "summary",
			"clinicalRecommendations", "footwearSuggestions", "confidenceScore",
		},
	}
}
