package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"subtrans/internal/services"
	"subtrans/internal/translate"
)

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{
						map[string]any{"text": text},
					},
				},
			},
		},
	}
}

func testRequest() translate.Request {
	return translate.Request{
		Context:        "A cooking show",
		TargetLanguage: "French",
		Mode:           translate.ModeNormal,
		Items: []translate.Item{
			{Index: 1, Lines: []string{"Hello"}},
			{Index: 2, Lines: []string{"Two", "lines"}},
		},
	}
}

func TestClientTranslate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateContentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		payload := candidateResponse(`{"translated_line_1":"Bonjour","translated_line_2":"Deux\nlignes"}`)
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, NormalModel: "demo-pro"})
	result, err := client.Translate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}

	if gotPath != "/models/demo-pro:generateContent" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "test" {
		t.Fatalf("unexpected api key header: %q", gotKey)
	}
	if got := result.Items[1]; len(got) != 1 || got[0] != "Bonjour" {
		t.Fatalf("unexpected translation for index 1: %v", got)
	}
	if got := result.Items[2]; len(got) != 2 || got[0] != "Deux" || got[1] != "lignes" {
		t.Fatalf("unexpected translation for index 2: %v", got)
	}

	if gotBody.GenerationConfig == nil || gotBody.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatal("expected JSON response mode")
	}
	required := gotBody.GenerationConfig.ResponseSchema.Required
	if len(required) != 2 {
		t.Fatalf("expected schema to require both cues, got %v", required)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "French") || !strings.Contains(prompt, "A cooking show") {
		t.Fatalf("prompt missing language or context: %s", prompt)
	}
	if !strings.Contains(prompt, "Line 2:\nTwo\nlines") {
		t.Fatalf("prompt missing numbered cue: %s", prompt)
	}
}

func TestClientTranslateUsesFastModelForFastMode(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(candidateResponse(`{"translated_line_1":"Bonjour","translated_line_2":"Deux"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, FastModel: "demo-flash", NormalModel: "demo-pro"})
	req := testRequest()
	req.Mode = translate.ModeFast
	if _, err := client.Translate(context.Background(), req); err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if gotPath != "/models/demo-flash:generateContent" {
		t.Fatalf("expected fast model, got path %s", gotPath)
	}
}

func TestClientTranslateHandlesCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candidateResponse("```json\n{\"translated_line_1\":\"Bonjour\",\"translated_line_2\":\"Deux\"}\n```"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, NormalModel: "demo"})
	result, err := client.Translate(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if result.Items[1][0] != "Bonjour" {
		t.Fatalf("unexpected result: %v", result.Items)
	}
}

func TestClientTranslateClassifiesServerErrorsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, NormalModel: "demo"})
	_, err := client.Translate(context.Background(), testRequest())
	if !services.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if delay, ok := services.RetryDelay(err); !ok || delay != 7*time.Second {
		t.Fatalf("expected Retry-After of 7s, got %v %v", delay, ok)
	}
}

func TestClientTranslateClassifiesClientErrorsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad request"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, NormalModel: "demo"})
	_, err := client.Translate(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if services.IsRetryable(err) {
		t.Fatalf("expected permanent error, got retryable %v", err)
	}
}

func TestClientTranslateEmptyCandidatesTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, NormalModel: "demo"})
	_, err := client.Translate(context.Background(), testRequest())
	if !services.IsRetryable(err) {
		t.Fatalf("expected retryable error for empty content, got %v", err)
	}
}

func TestClientTranslateRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{NormalModel: "demo"})
	_, err := client.Translate(context.Background(), testRequest())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClientDetectContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candidateResponse(`{"context":"A legal drama set in Chicago"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, NormalModel: "demo"})
	got, err := client.DetectContext(context.Background(), []string{"Objection!", "Overruled."}, "French", translate.ModeNormal)
	if err != nil {
		t.Fatalf("DetectContext returned error: %v", err)
	}
	if got != "A legal drama set in Chicago" {
		t.Fatalf("unexpected context: %q", got)
	}
}

func TestClientCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(candidateResponse(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, NormalModel: "demo"})
	_, err := client.Translate(ctx, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if services.IsRetryable(err) {
		t.Fatal("cancellation must not be retryable")
	}
}

func TestDecodeModelJSONQuirks(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"plain object", `{"context":"x"}`, false},
		{"fenced", "```json\n{\"context\":\"x\"}\n```", false},
		{"leading prose", "Here you go: {\"context\":\"x\"}", false},
		{"empty", "   ", true},
		{"not json", "no braces here", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var decoded struct {
				Context string `json:"context"`
			}
			err := DecodeModelJSON(tc.payload, &decoded)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeModelJSON: %v", err)
			}
			if decoded.Context != "x" {
				t.Fatalf("unexpected decode: %+v", decoded)
			}
		})
	}
}
