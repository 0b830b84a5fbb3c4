package auth

import (
	"context"
	"testing"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), "tenant-a", RoleOperator, "ops@example.com")

	identity, ok := IdentityFromContext(ctx)
	if !ok {
		t.Fatal("expected identity in context")
	}
	if identity.TenantID != "tenant-a" || identity.Role != RoleOperator || identity.Subject != "ops@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if TenantIDFromContext(ctx) != "tenant-a" {
		t.Fatal("tenant accessor mismatch")
	}
	if RoleFromContext(ctx) != RoleOperator {
		t.Fatal("role accessor mismatch")
	}
	if SubjectFromContext(ctx) != "ops@example.com" {
		t.Fatal("subject accessor mismatch")
	}
}

func TestIdentityFromContext_Absent(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatal("expected no identity in a bare context")
	}
	if TenantIDFromContext(context.Background()) != "" {
		t.Fatal("expected empty tenant without identity")
	}
	if RoleFromContext(nil) != "" {
		t.Fatal("expected empty role for nil context")
	}
}
