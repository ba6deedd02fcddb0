package scanning

import (
	"encoding/json"
	"errors"
	"strings"
)

// parseReceiptJSON parses the model's JSON answer into a record
func parseReceiptJSON(text string) (*ReceiptData, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, &ParseError{Err: errors.New("no JSON object found in response")}
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx < startIdx {
		return nil, &ParseError{Err: errors.New("invalid JSON object in response")}
	}
	text = text[startIdx : endIdx+1]

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	if code, ok := doc["originalCurrency"].(string); ok {
		doc["originalCurrency"] = strings.ToUpper(strings.TrimSpace(code))
	}
	// The model never assigns identifiers
	delete(doc, "id")
	if err := validateReceipt(doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	var data ReceiptData
	if err := json.Unmarshal(normalized, &data); err != nil {
		return nil, &ParseError{Err: err}
	}
	data.normalize()

	return &data, nil
}

// stripCodeFence removes a surrounding markdown code block, if any
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
