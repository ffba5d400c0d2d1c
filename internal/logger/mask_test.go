package logger

import "testing"

func TestMaskAuthorization(t *testing.T) {
	got := MaskAuthorization("Bearer abcdef1234")
	want := "Bearer ****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskAuthorizationWithoutScheme(t *testing.T) {
	got := MaskAuthorization("abcdef1234")
	want := "****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := MaskAPIKey("key_12345678"); got != "****5678" {
		t.Fatalf("expected masked key, got %q", got)
	}
	if got := MaskAPIKey("abc"); got != "****" {
		t.Fatalf("short values must mask entirely, got %q", got)
	}
	if got := MaskAPIKey("  "); got != "" {
		t.Fatalf("blank values must stay empty, got %q", got)
	}
}
