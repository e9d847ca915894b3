package httpapi

import (
	"context"
	"testing"
)

func TestIsHandlerSpan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "handler span", in: "httpapi.Handler.SubmitClaim", want: true},
		{name: "middleware span", in: "httpapi.RequestLogging", want: false},
		{name: "helper span", in: "httpapi.writeError", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHandlerSpan(tt.in); got != tt.want {
				t.Fatalf("isHandlerSpan(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStartSpan_NoParentPassesThrough(t *testing.T) {
	ctx := context.Background()
	gotCtx, span := startSpan(ctx, "httpapi.Handler.SubmitClaim")
	if gotCtx != ctx {
		t.Fatal("expected context to pass through without a parent span")
	}
	if span.SpanContext().IsValid() {
		t.Fatal("expected no recording span without a parent")
	}
}
