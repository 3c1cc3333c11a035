package utils

import "testing"

func TestSanitizeEnv(t *testing.T) {
	cases := map[string]string{
		`  postgres://u@h/db `: "postgres://u@h/db",
		`"quoted"`:             "quoted",
		`'single'`:             "single",
		`"mismatched'`:         `"mismatched'`,
		`"`:                    `"`,
		"":                     "",
	}

	for in, want := range cases {
		if got := SanitizeEnv(in); got != want {
			t.Errorf("SanitizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetEnvTrimmedOrDefault(t *testing.T) {
	t.Setenv("WAITLIST_TEST_VALUE", "   ")
	if got := GetEnvTrimmedOrDefault("WAITLIST_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}

	t.Setenv("WAITLIST_TEST_VALUE", " set ")
	if got := GetEnvTrimmedOrDefault("WAITLIST_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}
