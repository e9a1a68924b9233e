// Package analysis defines the structured podiatric analysis contract:
// the result model, the instruction prompt sent with the images, and the
// service that normalizes every failure into one user-facing error.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ArchType classifies the foot arch.
type ArchType string

const (
	ArchNormal  ArchType = "Normal"
	ArchFlat    ArchType = "Flat"
	ArchHigh    ArchType = "High"
	ArchUnknown ArchType = "Unknown"
)

// Valid reports whether the arch type is one of the declared enum values.
func (a ArchType) Valid() bool {
	switch a {
	case ArchNormal, ArchFlat, ArchHigh, ArchUnknown:
		return true
	}
	return false
}

// Severity grades a potential issue.
type Severity string

const (
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
	SeverityUnknown  Severity = "Unknown"
)

// Valid reports whether the severity is one of the declared enum values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityMild, SeverityModerate, SeveritySevere, SeverityUnknown:
		return true
	}
	return false
}

// PotentialIssue is one heuristic finding in an analysis result.
type PotentialIssue struct {
	Issue       string   `json:"issue"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// Result is the structured output of one successful analysis. It is
// immutable after creation and replaced wholesale by each new analysis.
type Result struct {
	ArchType                ArchType         `json:"archType"`
	PotentialIssues         []PotentialIssue `json:"potentialIssues"`
	Summary                 string           `json:"summary"`
	ClinicalRecommendations []string         `json:"clinicalRecommendations"`
	FootwearSuggestions     []string         `json:"footwearSuggestions"`
	ConfidenceScore         float64          `json:"confidenceScore"`
}

// wireResult mirrors Result with pointer fields so that missing required
// fields in the remote response are distinguishable from zero values.
type wireResult struct {
	ArchType                *string      `json:"archType"`
	PotentialIssues         *[]wireIssue `json:"potentialIssues"`
	Summary                 *string      `json:"summary"`
	ClinicalRecommendations *[]string    `json:"clinicalRecommendations"`
	FootwearSuggestions     *[]string    `json:"footwearSuggestions"`
	ConfidenceScore         *float64     `json:"confidenceScore"`
}

type wireIssue struct {
	Issue       *string `json:"issue"`
	Severity    *string `json:"severity"`
	Description *string `json:"description"`
}

// ParseResult decodes and validates a remote response body. The response is
// not trusted: missing required fields, unknown enum values and confidence
// outside [0,100] are all rejected.
func ParseResult(raw []byte) (*Result, error) {
	body := stripCodeFences(string(raw))

	var wire wireResult
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	if wire.ArchType == nil {
		return nil, fmt.Errorf("response is missing archType")
	}
	arch := ArchType(*wire.ArchType)
	if !arch.Valid() {
		return nil, fmt.Errorf("response has unknown archType %q", *wire.ArchType)
	}
	if wire.PotentialIssues == nil {
		return nil, fmt.Errorf("response is missing potentialIssues")
	}
	if wire.Summary == nil {
		return nil, fmt.Errorf("response is missing summary")
	}
	if wire.ClinicalRecommendations == nil {
		return nil, fmt.Errorf("response is missing clinicalRecommendations")
	}
	if wire.FootwearSuggestions == nil {
		return nil, fmt.Errorf("response is missing footwearSuggestions")
	}
	if wire.ConfidenceScore == nil {
		return nil, fmt.Errorf("response is missing confidenceScore")
	}
	if *wire.ConfidenceScore < 0 || *wire.ConfidenceScore > 100 {
		return nil, fmt.Errorf("confidenceScore %v is outside [0,100]", *wire.ConfidenceScore)
	}

	issues := make([]PotentialIssue, 0, len(*wire.PotentialIssues))
	for i, wi := range *wire.PotentialIssues {
		if wi.Issue == nil || wi.Severity == nil || wi.Description == nil {
			return nil, fmt.Errorf("potentialIssues[%d] is missing a required field", i)
		}
		sev := Severity(*wi.Severity)
		if !sev.Valid() {
			return nil, fmt.Errorf("potentialIssues[%d] has unknown severity %q", i, *wi.Severity)
		}
		issues = append(issues, PotentialIssue{
			Issue:       *wi.Issue,
			Severity:    sev,
			Description: *wi.Description,
		})
	}

	return &Result{
		ArchType:                arch,
		PotentialIssues:         issues,
		Summary:                 *wire.Summary,
		ClinicalRecommendations: *wire.ClinicalRecommendations,
		FootwearSuggestions:     *wire.FootwearSuggestions,
		ConfidenceScore:         *wire.ConfidenceScore,
	}, nil
}

// stripCodeFences removes a surrounding markdown code block if the provider
// wrapped its JSON in one.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
