package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"healthmate/internal/llm"
	"healthmate/internal/models"
)

// Tool is a callable the agent can hand work to. Both registered tools
// return their final user-facing HTML directly; the agent does not feed
// results back through the model.
type Tool interface {
	Definition() models.Tool
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

// systemPrompt instructs the model to pick exactly one tool for the
// structured payload it is given
const systemPrompt = `You are a tool-dispatch agent for a health assistant.
You receive a JSON payload describing either a medical report or a medical image request.
If the payload contains "title", "filename" and "body", call write_report with those values.
If the payload contains "image_prompt", call generate_medical_image with it.
Always call exactly one tool. Do not answer in plain text.`

// Agent runs a single tool-selection pass over structured chain output
type Agent struct {
	llm   llm.ToolCompleter
	tools map[string]Tool
	defs  []models.Tool
}

// New creates an agent with the given tool set
func New(completer llm.ToolCompleter, tools ...Tool) *Agent {
	a := &Agent{
		llm:   completer,
		tools: make(map[string]Tool, len(tools)),
	}
	for _, tool := range tools {
		def := tool.Definition()
		a.tools[def.Function.Name] = tool
		a.defs = append(a.defs, def)
	}
	return a
}

// Dispatch sends the structured payload through the model with the tool set
// attached and executes the first tool call it returns. The tool's output is
// the final answer.
func (a *Agent) Dispatch(ctx context.Context, payload string) (string, error) {
	messages := []models.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: payload},
	}

	reply, err := a.llm.CompleteWithTools(ctx, messages, a.defs)
	if err != nil {
		return "", err
	}

	if len(reply.ToolCalls) == 0 {
		// The model answered directly; pass it through rather than failing
		// the whole chat turn.
		log.Printf("⚠️ Agent returned no tool call, passing text through")
		return reply.Content, nil
	}

	call := reply.ToolCalls[0]
	tool, ok := a.tools[call.Function.Name]
	if !ok {
		return "", fmt.Errorf("model requested unknown tool %q", call.Function.Name)
	}

	log.Printf("🔧 Dispatching tool: %s", call.Function.Name)
	return tool.Execute(ctx, json.RawMessage(call.Function.Arguments))
}
