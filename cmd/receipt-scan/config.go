package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// config holds the backend settings read from flags and environment
type config struct {
	Port          int    `validate:"min=1,max=65535"`
	Scanner       string `validate:"oneof=gemini vertex ollama"`
	GeminiKey     string `validate:"required_if=Scanner gemini"`
	GeminiModel   string
	VertexProject string `validate:"required_if=Scanner vertex"`
	VertexRegion  string `validate:"required_if=Scanner vertex"`
	VertexModel   string
	OllamaURL     string `validate:"omitempty,url"`
	OllamaModel   string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// flagNames maps config fields to the flags that set them
var flagNames = map[string]string{
	"Port":          "--port",
	"Scanner":       "--scanner",
	"GeminiKey":     "--gemini-key (or GEMINI_API_KEY)",
	"VertexProject": "--vertex-project",
	"VertexRegion":  "--vertex-region",
	"OllamaURL":     "--ollama-url",
}

// check reports every invalid setting in terms of its flag
func (c config) check() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		name := flagNames[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "required_if":
			msgs[i] = fmt.Sprintf("%s is required for the %s scanner", name, c.Scanner)
		case "oneof":
			msgs[i] = fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
		default:
			msgs[i] = fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
