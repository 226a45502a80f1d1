package labeler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"

	"github.com/focuspulse/focuspulse/internal/models"
)

const systemPrompt = "You are a concise assistant that classifies short application/tab titles for productivity analysis. " +
	"Respond ONLY with a single JSON object with fields: category, confidence, tags, rationale. " +
	"Allowed categories: focus, distraction, neutral. Confidence: float 0-100. Tags: array of short labels. " +
	"Rationale: one short sentence <= 30 words. Do not include any other text."

const resultSchemaURL = "https://focuspulse.local/schemas/labeler-result.json"

const resultSchema = `{
  "type": "object",
  "required": ["category"],
  "properties": {
    "category": {"type": "string", "enum": ["focus", "distraction", "neutral"]},
    "confidence": {"type": "number", "minimum": 0, "maximum": 100},
    "tags": {"type": "array", "items": {"type": "string"}},
    "rationale": {"type": "string"}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func replySchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(resultSchemaURL, strings.NewReader(resultSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(resultSchemaURL)
	})
	return compiledSchema, schemaErr
}

// OpenAI asks a chat completion model.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a labeler for the given key and model. baseURL may be
// empty for the public API.
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func userPrompt(text string) string {
	return fmt.Sprintf("Title: %q\n\nExamples:\n", text) +
		"Title: \"Chrome — Inbox (Gmail)\"\n" +
		"Output: {\"category\":\"neutral\",\"confidence\":85.0,\"tags\":[\"email\",\"communication\"],\"rationale\":\"Email likely neutral work-related communication.\"}\n" +
		"Title: \"Chrome — YouTube\"\n" +
		"Output: {\"category\":\"distraction\",\"confidence\":95.0,\"tags\":[\"video\",\"entertainment\"],\"rationale\":\"YouTube generally indicates entertainment/video content.\"}\n" +
		fmt.Sprintf("Now classify only: %q", text)
}

func (o *OpenAI) Label(ctx context.Context, text string) (Result, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(text)},
		},
		MaxTokens:   200,
		Temperature: 0,
		N:           1,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	model := resp.Model
	if model == "" {
		model = o.model
	}

	r, ok := parseReply(resp.Choices[0].Message.Content)
	if !ok {
		r = localFallback(text)
	}
	r.Model = model
	return r, nil
}

// parseReply extracts a result from model output: the whole reply as JSON,
// else the outermost {...} substring. The object must match the schema.
func parseReply(raw string) (Result, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{}, false
	}

	if r, ok := decodeReply(raw); ok {
		return r, true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return Result{}, false
	}
	return decodeReply(raw[start : end+1])
}

func decodeReply(s string) (Result, bool) {
	var generic any
	if err := json.Unmarshal([]byte(s), &generic); err != nil {
		return Result{}, false
	}

	schema, err := replySchema()
	if err != nil || schema.Validate(generic) != nil {
		return Result{}, false
	}

	var reply struct {
		Category   string   `json:"category"`
		Confidence float64  `json:"confidence"`
		Tags       []string `json:"tags"`
		Rationale  string   `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(s), &reply); err != nil {
		return Result{}, false
	}

	cat, ok := models.ParseCategory(reply.Category)
	if !ok {
		return Result{}, false
	}
	if reply.Tags == nil {
		reply.Tags = []string{}
	}
	return Result{
		Category:   cat,
		Confidence: reply.Confidence,
		Tags:       reply.Tags,
		Rationale:  reply.Rationale,
	}, true
}
