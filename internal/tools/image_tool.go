package tools

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"healthmate/internal/models"
)

const (
	// DefaultFreepikBaseURL is the production Freepik API endpoint
	DefaultFreepikBaseURL = "https://api.freepik.com"

	// maxPollAttempts bounds the task polling loop
	maxPollAttempts = 30

	// pollInterval is the delay between polling attempts
	pollInterval = 2 * time.Second
)

// ImageTool generates a medical illustration through the Freepik
// text-to-image API, saves it under the uploads directory and returns an
// HTML img tag. Registered with the agent as "generate_medical_image".
type ImageTool struct {
	apiKey        string
	baseURL       string
	uploadDir     string
	publicBaseURL string
	httpClient    *http.Client
	pollInterval  time.Duration
}

// NewImageTool creates the image generation tool
func NewImageTool(apiKey, uploadDir, publicBaseURL string) *ImageTool {
	return &ImageTool{
		apiKey:        apiKey,
		baseURL:       DefaultFreepikBaseURL,
		uploadDir:     uploadDir,
		publicBaseURL: publicBaseURL,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		pollInterval:  pollInterval,
	}
}

// imageArgs is the tool-call argument payload
type imageArgs struct {
	ImagePrompt string `json:"image_prompt"`
}

// generateResponse covers both response shapes: an immediate data array with
// base64 images, or a task to poll. The data field is polymorphic so it is
// decoded lazily.
type generateResponse struct {
	Data   json.RawMessage `json:"data"`
	TaskID string          `json:"task_id"`
}

type generatedImage struct {
	Base64 string `json:"base64"`
}

type generateTask struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type taskStatusResponse struct {
	Data struct {
		Status    string   `json:"status"`
		Generated []string `json:"generated"`
	} `json:"data"`
}

// Definition describes the tool in OpenAI function-calling format
func (t *ImageTool) Definition() models.Tool {
	return models.Tool{
		Type: "function",
		Function: models.ToolFunction{
			Name:        "generate_medical_image",
			Description: "Generate a safe, non-clinical medical illustration from a text prompt",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"image_prompt": map[string]any{"type": "string", "description": "A descriptive prompt for a medical illustration or anatomy visualization"},
				},
				"required": []string{"image_prompt"},
			},
		},
	}
}

// Execute submits the prompt, waits for completion and returns the img tag.
// Provider-side failures come back as user-facing messages with a nil error;
// only transport and filesystem problems are errors.
func (t *ImageTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var req imageArgs
	if err := json.Unmarshal(args, &req); err != nil {
		return "", fmt.Errorf("invalid generate_medical_image arguments: %w", err)
	}
	return t.Generate(ctx, req.ImagePrompt)
}

// Generate runs the full submit → poll → decode → save flow
func (t *ImageTool) Generate(ctx context.Context, imagePrompt string) (string, error) {
	if t.apiKey == "" {
		return "<p style='color: red;'>Error: Image generation is not configured on this server.</p>", nil
	}

	payload := map[string]any{
		"prompt":     imagePrompt,
		"num_images": 1,
		"image":      map[string]any{"size": "square_1_1"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v1/ai/text-to-image", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-freepik-api-key", t.apiKey)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("image provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized, http.StatusForbidden:
		return "<p style='color: red;'>Error: Image service rejected the API key.</p>", nil
	case http.StatusTooManyRequests:
		return "<p style='color: red;'>Error: Image service rate limit reached. Please try again later.</p>", nil
	default:
		return fmt.Sprintf("<p style='color: red;'>Error: Image service returned status %d.</p>", resp.StatusCode), nil
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("failed to decode image response: %w", err)
	}

	// Direct response path: base64 payload in the first call
	var images []generatedImage
	if json.Unmarshal(genResp.Data, &images) == nil && len(images) > 0 && images[0].Base64 != "" {
		return t.saveImage(images[0].Base64)
	}

	taskID := genResp.TaskID
	if taskID == "" {
		var task generateTask
		if json.Unmarshal(genResp.Data, &task) == nil {
			taskID = task.TaskID
		}
	}
	if taskID == "" {
		return "<p style='color: red;'>Error: Image service returned no image and no task.</p>", nil
	}

	return t.pollTask(ctx, taskID)
}

// pollTask polls the hyperflux task endpoint until the image is ready or the
// attempt budget runs out
func (t *ImageTool) pollTask(ctx context.Context, taskID string) (string, error) {
	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(t.pollInterval):
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/v1/ai/text-to-image/hyperflux/%s", t.baseURL, taskID), nil)
		if err != nil {
			return "", err
		}
		httpReq.Header.Set("x-freepik-api-key", t.apiKey)

		resp, err := t.httpClient.Do(httpReq)
		if err != nil {
			return "", fmt.Errorf("image provider unreachable: %w", err)
		}

		var status taskStatusResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if decodeErr != nil {
			return "", fmt.Errorf("failed to decode task status: %w", decodeErr)
		}

		switch status.Data.Status {
		case "COMPLETED":
			if len(status.Data.Generated) == 0 {
				return "<p style='color: red;'>Error: Image task completed without an image.</p>", nil
			}
			return t.saveImage(status.Data.Generated[0])
		case "FAILED", "ERROR":
			return "<p style='color: red;'>Error: Image generation failed. Please try again later.</p>", nil
		}
	}

	log.Printf("⏰ Image task %s timed out after %d attempts", taskID, maxPollAttempts)
	return "<p style='color: red;'>Error: Image generation timed out. Please try again later.</p>", nil
}

// saveImage decodes the base64 payload, writes the PNG into the uploads
// directory and returns the img tag pointing at it
func (t *ImageTool) saveImage(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode image data: %w", err)
	}

	if err := os.MkdirAll(t.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	filename := fmt.Sprintf("HealthCareAI_Generated_image_%s.png", uuid.New().String())
	if err := os.WriteFile(filepath.Join(t.uploadDir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save generated image: %w", err)
	}

	log.Printf("🖼️ Generated image saved: %s", filename)
	return fmt.Sprintf("<img src='%s/uploads/%s' alt='Generated medical illustration' />", t.publicBaseURL, filename), nil
}
