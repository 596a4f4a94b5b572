package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiGenerator streams diagram JSON through the Gemini API.
type GeminiGenerator struct {
	client        *genai.Client
	model         string
	promptBuilder *PromptBuilder
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{
		client:        client,
		model:         model,
		promptBuilder: &PromptBuilder{},
	}, nil
}

func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) GenerateDiagram(ctx context.Context, req Request, fn ChunkFunc) error {
	model := req.Model
	if model == "" {
		model = g.model
	}
	if strings.TrimSpace(model) == "" {
		return fmt.Errorf("gemini model is required")
	}

	var parts []*genai.Part
	if len(req.ImageData) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts,
			genai.NewPartFromText(g.promptBuilder.BuildImagePrompt(req.Prompt)),
			genai.NewPartFromBytes(req.ImageData, mime),
		)
	} else {
		parts = append(parts, genai.NewPartFromText(g.promptBuilder.BuildDiagramPrompt(req.Prompt)))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var config *genai.GenerateContentConfig
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config = &genai.GenerateContentConfig{Temperature: &temp}
	}

	for resp, err := range g.client.Models.GenerateContentStream(ctx, model, contents, config) {
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %v", ErrStream, err)
		}
		if text := resp.Text(); text != "" {
			if err := fn(text); err != nil {
				return err
			}
		}
	}
	return nil
}
