package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicProviderRequestShape(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "k" || r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("missing auth headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"Leídas: 10"},{"type":"tool_use"},{"type":"text","text":"Total: 10"}]}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider(AnthropicConfig{APIKey: "k", BaseURL: srv.URL + "/", Model: "m"})
	req := Request{Text: "captura", Image: &Image{MediaType: "image/png", Data: "AAAA"}}
	out, err := p.Analyze(context.Background(), SystemPrompt, req, DefaultMaxTokens)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if out != "Leídas: 10\nTotal: 10" {
		t.Fatalf("unexpected output %q", out)
	}

	if got.Model != "m" || got.MaxTokens != 1024 || got.System != SystemPrompt {
		t.Fatalf("unexpected request header fields: %+v", got)
	}
	blocks := got.Messages[0].Content
	if len(blocks) != 2 || blocks[0].Type != "image" || blocks[1].Type != "text" {
		t.Fatalf("image block must precede text block: %+v", blocks)
	}
	if blocks[0].Source.MediaType != "image/png" || blocks[0].Source.Type != "base64" {
		t.Fatalf("bad image source %+v", blocks[0].Source)
	}
}

func TestAnthropicProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"image too large"}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider(AnthropicConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := p.Analyze(context.Background(), SystemPrompt, Request{Text: "x"}, 10)
	if err == nil || !strings.Contains(err.Error(), "image too large") {
		t.Fatalf("expected API error message, got %v", err)
	}

	noKey := NewAnthropicProvider(AnthropicConfig{BaseURL: srv.URL})
	if _, err := noKey.Analyze(context.Background(), SystemPrompt, Request{Text: "x"}, 10); err == nil {
		t.Fatalf("expected error without API key")
	}
}
