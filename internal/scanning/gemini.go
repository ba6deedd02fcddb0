package scanning

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured
const DefaultGeminiModel = "gemini-3-flash-preview"

// Gemini implements Backend using the Google Gemini API
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini backend
func NewGemini(ctx context.Context, apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = geminiSchema()

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

func geminiSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(Fields))
	for _, f := range Fields {
		s := &genai.Schema{Type: genai.TypeString, Description: f.Description}
		if f.Type == TypeNumber {
			s.Type = genai.TypeNumber
		}
		s.Nullable = !f.Required
		props[f.Name] = s
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   RequiredFields(),
	}
}

// Generate sends the request and returns the concatenated text answer
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	var parts []genai.Part
	if req.Inline() {
		parts = append(parts, genai.Blob{MIMEType: req.MIMEType, Data: req.Data})
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
