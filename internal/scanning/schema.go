package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/zombor/receipt-scan/internal/currency"
)

// FieldType is the JSON type of a record field
type FieldType string

const (
	TypeString FieldType = "string"
	TypeNumber FieldType = "number"
)

// Field describes one record field the model must produce
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	Enum        []string
}

// Fields is the output structure declared to the model, in record order.
// Each backend translates it into its own schema type.
var Fields = receiptFields()

func receiptFields() []Field {
	codes := make([]string, len(currency.All))
	for i, c := range currency.All {
		codes[i] = string(c)
	}

	fields := []Field{
		{Name: "entity", Type: TypeString, Description: "Default to 'GDC' if not specified"},
		{Name: "paidBy", Type: TypeString, Description: "Default to 'HK' if not specified"},
		{Name: "month", Type: TypeString, Description: "Format YYYYMM based on receipt date (e.g. 202602). Use current month if unknown."},
		{Name: "supplier", Type: TypeString},
		{Name: "description", Type: TypeString},
		{Name: "catNumber", Type: TypeString, Description: "The category number (e.g. 1, 4, 13)", Required: true},
		{Name: "cat", Type: TypeString, Description: "The category detail name", Required: true},
		{Name: "invoiceNo", Type: TypeString},
		{Name: "originalCurrency", Type: TypeString, Description: "The currency code of the invoice (e.g. USD, EUR, GBP, HKD, CNY)", Required: true, Enum: codes},
	}
	for _, c := range currency.All {
		f := Field{Name: c.Field(), Type: TypeNumber}
		if c.AlwaysFilled() {
			f.Description = fmt.Sprintf("REQUIRED. Calculate %s. Use 0 if cannot be found.", c)
			f.Required = true
		}
		fields = append(fields, f)
	}
	return append(fields,
		Field{Name: "pic", Type: TypeString, Description: "Default to 'Ning' if not specified"},
		Field{Name: "remarks", Type: TypeString},
	)
}

// RequiredFields lists the names of mandatory fields
func RequiredFields() []string {
	var out []string
	for _, f := range Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// JSONSchema renders Fields as a JSON Schema used to validate responses
// locally. Optional fields may be null.
func JSONSchema() map[string]any {
	props := make(map[string]any, len(Fields))
	for _, f := range Fields {
		prop := map[string]any{}
		if f.Required {
			prop["type"] = string(f.Type)
		} else {
			prop["type"] = []string{string(f.Type), "null"}
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if len(f.Enum) > 0 {
			prop["enum"] = f.Enum
		}
		props[f.Name] = prop
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   RequiredFields(),
	}
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("receipt.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("receipt.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// validateReceipt checks a decoded response against the declared structure
func validateReceipt(doc any) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
