package tracing

import "testing"

func TestSettingsFromEnv_Disabled(t *testing.T) {
	t.Setenv("LANGFUSE_PUBLIC_KEY", "")
	t.Setenv("LANGFUSE_SECRET_KEY", "")
	t.Setenv("LANGFUSE_HOST", "")

	s := SettingsFromEnv()
	if s.Enabled() {
		t.Fatal("expected tracing disabled without keys")
	}
	if s.Host != defaultHost {
		t.Errorf("Host: got %q, want %q", s.Host, defaultHost)
	}

	flush, enabled := Install()
	if enabled {
		t.Fatal("Install reported enabled without keys")
	}
	flush() // must be safe to call
}

func TestSettingsFromEnv_PartialKeys(t *testing.T) {
	t.Setenv("LANGFUSE_PUBLIC_KEY", "pk")
	t.Setenv("LANGFUSE_SECRET_KEY", "")
	t.Setenv("LANGFUSE_HOST", "https://langfuse.example")

	s := SettingsFromEnv()
	if s.Enabled() {
		t.Error("expected disabled with only a public key")
	}
	if s.Host != "https://langfuse.example" {
		t.Errorf("Host: got %q", s.Host)
	}
	if _, _, ok := Setup(); ok {
		t.Error("Setup should not enable with a missing secret key")
	}
}
