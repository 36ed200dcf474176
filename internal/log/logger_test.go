package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level, component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Component: component, Output: &buf}), &buf
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_TagsComponent(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo, ComponentState)
	logger.Info("hello")

	if !strings.Contains(buf.String(), "component=state") {
		t.Fatalf("output=%q", buf.String())
	}
	if logger.Component() != ComponentState {
		t.Fatalf("Component() = %q", logger.Component())
	}
}

func TestOp(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo, ComponentRecords)

	logger.Op(context.Background(), OpUpsert, nil, "Entry saved", FieldEntryID, "e1")
	out := buf.String()
	if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "operation=upsert") || !strings.Contains(out, "entry_id=e1") {
		t.Fatalf("success output=%q", out)
	}

	buf.Reset()
	logger.Op(context.Background(), OpDelete, errors.New("disk full"), "Delete failed")
	out = buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, `error="disk full"`) {
		t.Fatalf("failure output=%q", out)
	}
}

func TestFromContext(t *testing.T) {
	logger, _ := newBufferLogger(slog.LevelInfo, ComponentHTTP)
	ctx := WithLogger(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Fatal("expected the stored logger")
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("expected a default logger")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	logger, buf := newBufferLogger(slog.LevelInfo, ComponentHTTP)

	handler := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_abc" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req_abc") {
		t.Fatalf("output=%q", buf.String())
	}
}

func TestLogHTTPEnd_Levels(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{200, "level=INFO"},
		{404, "level=WARN"},
		{502, "level=ERROR"},
	}
	for _, tt := range tests {
		logger, buf := newBufferLogger(slog.LevelDebug, ComponentHTTP)
		sl := NewStructuredLogger(logger)
		r := httptest.NewRequest(http.MethodGet, "/api/registros", nil)
		sl.LogHTTPEnd(context.Background(), r, tt.status, 3, "10.0.0.1")

		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("status %d: output=%q, want %s", tt.status, buf.String(), tt.want)
		}
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithEntry("e1", "Enero", "mes").
		WithError(nil).
		WithHTTPRequest("GET", "/", "", "", "")

	if _, ok := f[FieldError]; ok {
		t.Fatal("nil error must not be recorded")
	}
	if _, ok := f[FieldUserAgent]; ok {
		t.Fatal("empty user agent must not be recorded")
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("ToSlice length %d for %d fields", len(f.ToSlice()), len(f))
	}
}
