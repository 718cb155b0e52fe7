package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// tinyPNG is the smallest payload that looks like image bytes for the test
var tinyPNG = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func newTestImageTool(t *testing.T, serverURL string) *ImageTool {
	t.Helper()
	tool := NewImageTool("test-key", t.TempDir(), "http://127.0.0.1:8001")
	tool.baseURL = serverURL
	tool.pollInterval = time.Millisecond
	return tool
}

func TestGenerateDirectResponse(t *testing.T) {
	var gotKey, gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-freepik-api-key")
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)
		gotPrompt, _ = payload["prompt"].(string)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"base64": base64.StdEncoding.EncodeToString(tinyPNG)}},
		})
	}))
	defer server.Close()

	tool := newTestImageTool(t, server.URL)
	result, err := tool.Generate(context.Background(), "Medical illustration of lungs")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if gotPrompt != "Medical illustration of lungs" {
		t.Errorf("expected prompt forwarded, got %q", gotPrompt)
	}
	if !strings.Contains(result, "<img src='http://127.0.0.1:8001/uploads/HealthCareAI_Generated_image_") {
		t.Errorf("unexpected img tag: %q", result)
	}

	// The decoded PNG landed in the upload dir
	entries, err := os.ReadDir(tool.uploadDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one saved image, got %v (%v)", entries, err)
	}
	if !strings.HasPrefix(entries[0].Name(), "HealthCareAI_Generated_image_") {
		t.Errorf("unexpected filename: %q", entries[0].Name())
	}
	data, _ := os.ReadFile(filepath.Join(tool.uploadDir, entries[0].Name()))
	if string(data) != string(tinyPNG) {
		t.Error("saved image bytes do not match")
	}
}

func TestGeneratePollsTask(t *testing.T) {
	polls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ai/text-to-image", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"task_id": "task-1", "status": "IN_PROGRESS"},
		})
	})
	mux.HandleFunc("/v1/ai/text-to-image/hyperflux/task-1", func(w http.ResponseWriter, r *http.Request) {
		polls++
		status := "IN_PROGRESS"
		generated := []string{}
		if polls >= 3 {
			status = "COMPLETED"
			generated = []string{base64.StdEncoding.EncodeToString(tinyPNG)}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"status": status, "generated": generated},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tool := newTestImageTool(t, server.URL)
	result, err := tool.Generate(context.Background(), "heart diagram")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if polls < 3 {
		t.Errorf("expected at least 3 polls, got %d", polls)
	}
	if !strings.Contains(result, "<img src=") {
		t.Errorf("expected img tag, got %q", result)
	}
}

func TestGenerateFailedTask(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ai/text-to-image", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"task_id": "task-1"},
		})
	})
	mux.HandleFunc("/v1/ai/text-to-image/hyperflux/task-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"status": "FAILED"},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tool := newTestImageTool(t, server.URL)
	result, err := tool.Generate(context.Background(), "heart diagram")
	if err != nil {
		t.Fatalf("expected failure message, not error: %v", err)
	}
	if !strings.Contains(result, "Image generation failed") {
		t.Errorf("unexpected message: %q", result)
	}
}

func TestGenerateRejectedKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tool := newTestImageTool(t, server.URL)
	result, err := tool.Generate(context.Background(), "heart diagram")
	if err != nil {
		t.Fatalf("expected message, not error: %v", err)
	}
	if !strings.Contains(result, "rejected the API key") {
		t.Errorf("unexpected message: %q", result)
	}
}

func TestGenerateWithoutAPIKey(t *testing.T) {
	tool := NewImageTool("", t.TempDir(), "http://127.0.0.1:8001")
	result, err := tool.Generate(context.Background(), "heart diagram")
	if err != nil {
		t.Fatalf("expected message, not error: %v", err)
	}
	if !strings.Contains(result, "not configured") {
		t.Errorf("unexpected message: %q", result)
	}
}
