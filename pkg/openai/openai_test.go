package openai

import (
	"PanicButton/pkg/llm"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, status int, body string, captured *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

const okBody = `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"message":{"role":"assistant","content":"{\"summary\":\"ok\"}"},"finish_reason":"stop"}]}`

func TestGenerateText(t *testing.T) {
	var req chatRequest
	server := newTestServer(t, http.StatusOK, okBody, &req)
	defer server.Close()

	client := NewChatGPT("test-key", "gpt-4o-mini", server.URL)
	got, err := client.GenerateText(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"summary":"ok"}` {
		t.Errorf("unexpected text %q", got)
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "classify this" {
		t.Errorf("expected single prompt message, got %+v", req.Messages)
	}
}

func TestConverse_SendsHistoryInOrder(t *testing.T) {
	var req chatRequest
	server := newTestServer(t, http.StatusOK, okBody, &req)
	defer server.Close()

	client := NewChatGPT("test-key", "", server.URL)
	history := []llm.Message{
		{Role: llm.RoleAssistant, Content: "Hey, where are you?"},
		{Role: llm.RoleUser, Content: "On my way"},
	}

	if _, err := client.Converse(context.Background(), "be a friend", history, "almost there"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantRoles := []string{"system", "assistant", "user", "user"}
	if len(req.Messages) != len(wantRoles) {
		t.Fatalf("expected %d messages, got %d", len(wantRoles), len(req.Messages))
	}
	for i, role := range wantRoles {
		if req.Messages[i].Role != role {
			t.Errorf("message %d role = %q, want %q", i, req.Messages[i].Role, role)
		}
	}
	if req.Messages[3].Content != "almost there" {
		t.Errorf("expected current message last, got %q", req.Messages[3].Content)
	}
}

func TestGenerateText_UpstreamError(t *testing.T) {
	server := newTestServer(t, http.StatusServiceUnavailable,
		`{"error":{"message":"engine overloaded","type":"server_error"}}`, nil)
	defer server.Close()

	_, err := NewChatGPT("test-key", "", server.URL).GenerateText(context.Background(), "x")

	var upstream *llm.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", upstream.Status)
	}
	if upstream.Message != "engine overloaded" {
		t.Errorf("unexpected message %q", upstream.Message)
	}
}

func TestGenerateText_NoChoices(t *testing.T) {
	server := newTestServer(t, http.StatusOK,
		`{"id":"chatcmpl-2","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`, nil)
	defer server.Close()

	_, err := NewChatGPT("test-key", "", server.URL).GenerateText(context.Background(), "x")

	var invalid *llm.InvalidResponseError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidResponseError, got %v", err)
	}
}
