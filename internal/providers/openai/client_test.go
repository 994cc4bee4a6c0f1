package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateImageRequiresAPIKey(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "chair"}); err != ErrMissingAPIKey {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestGenerateImageSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data": []map[string]string{
				{"url": "https://cdn.openai.test/img.png", "revised_prompt": "a designer chair"},
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "sk-test", BaseURL: server.URL, Model: "dall-e-3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := client.GenerateImage(context.Background(), ImageRequest{
		Prompt:  "chair",
		Size:    "1024x1024",
		Quality: "hd",
		Style:   "vivid",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.URL != "https://cdn.openai.test/img.png" {
		t.Fatalf("url = %s", result.URL)
	}
	if result.RevisedPrompt != "a designer chair" {
		t.Fatalf("revised prompt = %s", result.RevisedPrompt)
	}
	if gotPath != "/images/generations" {
		t.Fatalf("path = %s", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("auth = %s", gotAuth)
	}
	if gotBody["quality"] != "hd" || gotBody["size"] != "1024x1024" {
		t.Fatalf("unexpected body: %v", gotBody)
	}
	if gotBody["response_format"] != "url" {
		t.Fatalf("response_format = %v", gotBody["response_format"])
	}
}

func TestGenerateImageDecodesErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"message": "billing hard limit reached",
				"type":    "invalid_request_error",
			},
		})
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "sk-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = client.GenerateImage(context.Background(), ImageRequest{Prompt: "chair"})
	if err == nil || !strings.Contains(err.Error(), "billing hard limit reached") {
		t.Fatalf("err = %v, want billing message", err)
	}
}

func TestGenerateImageEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"created": 1, "data": []any{}})
	}))
	defer server.Close()

	client, err := NewClient(Options{APIKey: "sk-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "chair"}); err == nil {
		t.Fatalf("expected error on empty data")
	}
}
