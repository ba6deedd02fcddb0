package scanning

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// DefaultVertexModel is used when no Vertex AI model name is configured
const DefaultVertexModel = "gemini-2.5-flash"

// Vertex implements Backend using Gemini models served by Vertex AI.
// Credentials come from the environment (application default credentials).
type Vertex struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewVertex creates a new Vertex AI backend
func NewVertex(ctx context.Context, projectID, region, modelName string) (*Vertex, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex project and region are required")
	}
	if modelName == "" {
		modelName = DefaultVertexModel
	}

	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("creating vertex client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = vertexSchema()

	return &Vertex{
		client: client,
		model:  model,
	}, nil
}

func vertexSchema() *genai.Schema {
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
func (v *Vertex) Generate(ctx context.Context, req Request) (string, error) {
	var parts []genai.Part
	if req.Inline() {
		parts = append(parts, genai.Blob{MIMEType: req.MIMEType, Data: req.Data})
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := v.model.GenerateContent(ctx, parts...)
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

// Close closes the Vertex AI client
func (v *Vertex) Close() error {
	return v.client.Close()
}
