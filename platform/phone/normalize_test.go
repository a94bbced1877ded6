package phone

import "testing"

func TestNormalizeE164_IndianNumberWithoutPrefix(t *testing.T) {
	got := NormalizeE164("9876543210", "+91")
	if got != "+919876543210" {
		t.Fatalf("expected +919876543210, got %q", got)
	}
}

func TestNormalizeE164_AlreadyInternational(t *testing.T) {
	got := NormalizeE164("+919876543210", "+91")
	if got != "+919876543210" {
		t.Fatalf("expected +919876543210, got %q", got)
	}
}

func TestNormalizeE164_UnparseableFallsBackToPrefix(t *testing.T) {
	got := NormalizeE164("12345", "+91")
	if got != "+9112345" {
		t.Fatalf("expected prefix fallback, got %q", got)
	}
}

func TestNormalizeE164_EmptyInput(t *testing.T) {
	if got := NormalizeE164("  ", "+91"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
