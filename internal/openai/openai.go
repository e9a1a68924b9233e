// Package openai implements the analysis provider over the OpenAI chat
// completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/vinfotechlanceai/smartstep/internal/analysis"
)

const completionsURL = "https://api.openai.com/v1/chat/completions"

// OpenAI is an analysis provider backed by OpenAI vision models
type OpenAI struct {
	model string
}

// New returns a new OpenAI provider for the given model
func New(model string) *OpenAI {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAI{model: model}
}

// Name identifies the provider in logs
func (o *OpenAI) Name() string { return "openai" }

// AnalyzeImages sends the instruction and labeled images to OpenAI and
// returns the raw JSON response body.
func (o *OpenAI) AnalyzeImages(ctx context.Context, req analysis.Request) ([]byte, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	content := []map[string]interface{}{
		{"type": "text", "text": req.Prompt},
	}
	for _, img := range req.Images {
		content = append(content,
			map[string]interface{}{"type": "text", "text": "Foot view: " + img.Label},
			map[string]interface{}{
				"type": "image_url",
				"image_url": map[string]string{
					"url": fmt.Sprintf("data:%s;base64,%s", img.MIME, base64.StdEncoding.EncodeToString(img.Data)),
				},
			},
		)
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": o.model,
		"messages": []map[string]interface{}{
			{"role": "user", "content": content},
		},
		"max_tokens":      2000,
		"temperature":     0.2,
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", completionsURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from OpenAI")
	}

	return []byte(response.Choices[0].Message.Content), nil
}
