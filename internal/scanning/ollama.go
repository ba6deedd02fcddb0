package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ollama implements Backend using a local Ollama server.
// Vision models only read images, so PDFs are rasterised before sending.
//
// Recommended models for receipt scanning:
//   - llava:1.6
//   - qwen2-vl:7b
//   - llama3.2-vision
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a new Ollama backend
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client: &http.Client{
			Timeout: 120 * time.Second, // vision models are slow
		},
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   any             `json:"format,omitempty"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Generate sends the request to Ollama's chat API
func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	user := ollamaMessage{Role: "user", Content: req.Prompt}
	if req.Inline() {
		imageData, err := prepareImageData(req.Data, req.MIMEType)
		if err != nil {
			return "", err
		}
		user.Images = []string{base64.StdEncoding.EncodeToString(imageData)}
	}

	reqBody := ollamaChatRequest{
		Model:  o.model,
		Stream: false,
		Format: JSONSchema(),
		Options: map[string]any{
			"temperature": 0.1,
		},
		Messages: []ollamaMessage{
			{
				Role:    "system",
				Content: "You are an expert at reading receipts, invoices and expense emails. Answer with JSON only.",
			},
			user,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		// The request never produced a status
		return "", &ServiceError{Status: "UNKNOWN", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &ServiceError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return chatResp.Message.Content, nil
}

// Close is a no-op for the HTTP client
func (o *Ollama) Close() error {
	return nil
}
