package requestctx

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if Logger(ctx) == nil || Logger(context.Background()) == nil {
		t.Fatal("expected a logger")
	}
}
