package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"healthmate/internal/llm"
	"healthmate/internal/models"
)

// ChainInput is the per-request context injected fresh into every chain call.
// There is no session object; chains are stateless.
type ChainInput struct {
	UserInput           string
	ConversationHistory string
	UserProfile         string
	ReferenceData       string
	UploadedText        string
}

// ChainResult is the typed output of a route chain: a plain answer, a report
// request, or an image request.
type ChainResult interface {
	// Text is the serialized output the tool dispatcher inspects
	Text() string
}

// PlainAnswer is free text returned as-is (GeneralHealth)
type PlainAnswer struct {
	Answer string
}

func (p PlainAnswer) Text() string { return p.Answer }

// ReportRequest is the structured output of the WriteDocument chain
type ReportRequest struct {
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Body     string `json:"body"`
}

func (r ReportRequest) Text() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// ImageRequest is the structured output of the GenerateMedicalImage chain
type ImageRequest struct {
	ImagePrompt string `json:"image_prompt"`
}

func (r ImageRequest) Text() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// ParseError reports a structured-output parse failure. It carries the raw
// model text so callers can choose their own fallback.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse structured output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Chains executes the fixed template → model call (→ parser) pipelines
type Chains struct {
	llm llm.Completer
}

// NewChains creates the route chain set
func NewChains(completer llm.Completer) *Chains {
	return &Chains{llm: completer}
}

// Run executes the chain bound to the given route key
func (c *Chains) Run(ctx context.Context, key RouteKey, input ChainInput) (ChainResult, error) {
	switch key {
	case RouteGeneralHealth:
		return c.runGeneral(ctx, input)
	case RouteWriteDocument:
		return c.runReport(ctx, input)
	case RouteGenerateMedicalImage:
		return c.runImage(ctx, input)
	default:
		return nil, fmt.Errorf("no chain bound to route key %q", key)
	}
}

func (c *Chains) vars(input ChainInput) map[string]string {
	return map[string]string{
		"user_input":                  input.UserInput,
		"conversation_history":        input.ConversationHistory,
		"user_profile":                input.UserProfile,
		"reference_data":              input.ReferenceData,
		"user_uploaded_files_or_text": input.UploadedText,
	}
}

func (c *Chains) runGeneral(ctx context.Context, input ChainInput) (ChainResult, error) {
	prompt := render(generalHealthTemplate, c.vars(input))

	answer, err := c.llm.Complete(ctx, []models.ChatMessage{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	return PlainAnswer{Answer: answer}, nil
}

func (c *Chains) runReport(ctx context.Context, input ChainInput) (ChainResult, error) {
	vars := c.vars(input)
	vars["format_instructions"] = reportFormatInstructions
	prompt := render(reportWritingTemplate, vars)

	raw, err := c.llm.Complete(ctx, []models.ChatMessage{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	report, err := ParseReport(raw)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Chains) runImage(ctx context.Context, input ChainInput) (ChainResult, error) {
	vars := c.vars(input)
	vars["format_instructions"] = imageFormatInstructions
	prompt := render(imageGeneratorTemplate, vars)

	raw, err := c.llm.Complete(ctx, []models.ChatMessage{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	image, err := ParseImagePrompt(raw)
	if err != nil {
		return nil, err
	}
	return image, nil
}

// ParseReport parses model output into a ReportRequest. All three fields are
// required; a missing field is a hard ParseError.
func ParseReport(raw string) (ReportRequest, error) {
	var report ReportRequest
	payload, err := extractJSON(raw)
	if err != nil {
		return report, &ParseError{Raw: raw, Err: err}
	}

	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return report, &ParseError{Raw: raw, Err: err}
	}

	if report.Title == "" {
		return report, &ParseError{Raw: raw, Err: fmt.Errorf("missing required field %q", "title")}
	}
	if report.Filename == "" {
		return report, &ParseError{Raw: raw, Err: fmt.Errorf("missing required field %q", "filename")}
	}
	if report.Body == "" {
		return report, &ParseError{Raw: raw, Err: fmt.Errorf("missing required field %q", "body")}
	}

	return report, nil
}

// ParseImagePrompt parses model output into an ImageRequest
func ParseImagePrompt(raw string) (ImageRequest, error) {
	var image ImageRequest
	payload, err := extractJSON(raw)
	if err != nil {
		return image, &ParseError{Raw: raw, Err: err}
	}

	if err := json.Unmarshal([]byte(payload), &image); err != nil {
		return image, &ParseError{Raw: raw, Err: err}
	}

	if image.ImagePrompt == "" {
		return image, &ParseError{Raw: raw, Err: fmt.Errorf("missing required field %q", "image_prompt")}
	}

	return image, nil
}

// extractJSON pulls the first JSON object out of model text, tolerating
// ```json fences and surrounding prose
func extractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	// Strip a fenced code block if present
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = rest[:end]
		} else {
			text = rest
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "{")
	if start < 0 {
		return "", fmt.Errorf("no JSON object in output")
	}

	// Walk to the matching closing brace, respecting strings
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unterminated JSON object in output")
}
