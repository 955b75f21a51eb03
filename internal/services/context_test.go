package services_test

import (
	"context"
	"testing"

	"parallax/internal/services"
)

func TestContextRoundTrips(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithProject(ctx, "boh-yai")
	ctx = services.WithStage(ctx, "depth")
	ctx = services.WithPartition(ctx, "GPU-3")
	ctx = services.WithRequestID(ctx, "run-123")

	if v, ok := services.ProjectFromContext(ctx); !ok || v != "boh-yai" {
		t.Fatalf("project = %q, %v", v, ok)
	}
	if v, ok := services.StageFromContext(ctx); !ok || v != "depth" {
		t.Fatalf("stage = %q, %v", v, ok)
	}
	if v, ok := services.PartitionFromContext(ctx); !ok || v != "GPU-3" {
		t.Fatalf("partition = %q, %v", v, ok)
	}
	if v, ok := services.RequestIDFromContext(ctx); !ok || v != "run-123" {
		t.Fatalf("request id = %q, %v", v, ok)
	}
}

func TestEmptyValuesIgnored(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("empty stage should not be stored")
	}
	if _, ok := services.PartitionFromContext(context.Background()); ok {
		t.Fatal("missing partition should report absent")
	}
}
