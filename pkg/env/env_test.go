package env

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("MODULESWAP_TEST_VALUE", "  console ")
	if got := Get("MODULESWAP_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	t.Setenv("MODULESWAP_TEST_VALUE", "   ")
	if got := Get("MODULESWAP_TEST_VALUE", "json"); got != "json" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
	if got := Get("MODULESWAP_TEST_UNSET", "json"); got != "json" {
		t.Fatalf("expected fallback for unset key, got %q", got)
	}
}
