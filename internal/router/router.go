package router

import (
	"context"
	"strings"

	"healthmate/internal/llm"
	"healthmate/internal/models"
)

// RouteKey is the closed set of labels the Prompt Router can select
type RouteKey string

const (
	RouteGeneralHealth        RouteKey = "GeneralHealth"
	RouteWriteDocument        RouteKey = "WriteDocument"
	RouteGenerateMedicalImage RouteKey = "GenerateMedicalImage"

	// RouteUnknown covers any model output that is not one of the labels.
	// Callers fall back to a clarification message instead of failing.
	RouteUnknown RouteKey = ""
)

// ParseRouteKey matches trimmed model output byte-exactly against the label
// set. No fuzzy matching: anything else is RouteUnknown.
func ParseRouteKey(raw string) RouteKey {
	switch strings.TrimSpace(raw) {
	case string(RouteGeneralHealth):
		return RouteGeneralHealth
	case string(RouteWriteDocument):
		return RouteWriteDocument
	case string(RouteGenerateMedicalImage):
		return RouteGenerateMedicalImage
	default:
		return RouteUnknown
	}
}

// RouteInput is the context available to the routing call
type RouteInput struct {
	UserInput           string
	ConversationHistory string
	ReferenceData       string
}

// Router classifies user input into a RouteKey with one LLM call
type Router struct {
	llm llm.Completer
}

// NewRouter creates a new prompt router
func NewRouter(completer llm.Completer) *Router {
	return &Router{llm: completer}
}

// Route invokes the model once with the routing template and parses the label.
// A mismatched label yields (RouteUnknown, nil); only transport/provider
// failures are errors.
func (r *Router) Route(ctx context.Context, input RouteInput) (RouteKey, error) {
	prompt := render(routingTemplate, map[string]string{
		"conversation_history": input.ConversationHistory,
		"reference_data":       input.ReferenceData,
		"user_input":           input.UserInput,
	})

	raw, err := r.llm.Complete(ctx, []models.ChatMessage{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return RouteUnknown, err
	}

	return ParseRouteKey(raw), nil
}
