package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Generator sends one request to a generative model and returns the text of
// the first candidate.
type Generator interface {
	Generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error)
}

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

var errEmptyResponse = errors.New("empty model response")

func (g *Gemini) Generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
