package assistant

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProvider struct {
	calls int
	last  Request
	out   string
	err   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Analyze(_ context.Context, system string, req Request, maxTokens int) (string, error) {
	f.calls++
	f.last = req
	if system != SystemPrompt || maxTokens != DefaultMaxTokens {
		return "", errors.New("unexpected system prompt or token budget")
	}
	return f.out, f.err
}

func TestParseDataURI(t *testing.T) {
	img, ok := ParseDataURI("data:image/png;base64,iVBORw0KGgo=")
	if !ok || img.MediaType != "image/png" || img.Data != "iVBORw0KGgo=" {
		t.Fatalf("unexpected parse: %+v %v", img, ok)
	}
	for _, bad := range []string{"", "image/png;base64,abc", "data:image/png,abc", "data:;base64,abc", "data:image/png;base64,"} {
		if _, ok := ParseDataURI(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestNewRequest(t *testing.T) {
	if _, err := NewRequest("", ""); !errors.Is(err, ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
	if _, err := NewRequest("", "not-a-data-uri"); !errors.Is(err, ErrNoInput) {
		t.Fatalf("malformed image alone should be rejected, got %v", err)
	}
	req, err := NewRequest("Total: 42", "garbage")
	if err != nil || req.Image != nil || req.Text != "Total: 42" {
		t.Fatalf("malformed image should be dropped: %+v %v", req, err)
	}
	req, err = NewRequest("", "data:image/jpeg;base64,/9j/4AAQ")
	if err != nil || req.Image == nil || req.Image.MediaType != "image/jpeg" {
		t.Fatalf("image-only request: %+v %v", req, err)
	}
}

func TestGatewayCachesIdenticalRequests(t *testing.T) {
	p := &fakeProvider{out: "- Leídas: 42"}
	g := NewGateway(p, WithCache(8, time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		out, err := g.Analyze(ctx, "leídas 42", "")
		if err != nil || out != "- Leídas: 42" {
			t.Fatalf("analyze %d: %q %v", i, out, err)
		}
	}
	if p.calls != 1 {
		t.Fatalf("provider called %d times, want 1", p.calls)
	}
	if _, err := g.Analyze(ctx, "otro texto", ""); err != nil || p.calls != 2 {
		t.Fatalf("different input must reach the provider")
	}
}

func TestGatewayErrors(t *testing.T) {
	p := &fakeProvider{err: errors.New("overloaded")}
	g := NewGateway(p, WithCache(8, time.Minute))

	if _, err := g.Analyze(context.Background(), "", ""); !errors.Is(err, ErrNoInput) || p.calls != 0 {
		t.Fatalf("empty input must not reach provider: %v", err)
	}
	_, err := g.Analyze(context.Background(), "texto", "")
	if err == nil || err.Error() != "fake: overloaded" {
		t.Fatalf("unexpected error %v", err)
	}
	if g.Cache().Size() != 0 {
		t.Fatalf("failures must not be cached")
	}
}

func TestGatewayWithoutCache(t *testing.T) {
	p := &fakeProvider{out: "ok"}
	g := NewGateway(p)
	g.Analyze(context.Background(), "a", "")
	g.Analyze(context.Background(), "a", "")
	if p.calls != 2 || g.Cache() != nil {
		t.Fatalf("expected no caching, calls=%d", p.calls)
	}
}
