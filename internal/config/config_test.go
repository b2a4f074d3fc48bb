package config

import (
	"os"
	"testing"
	"time"
)

// clearConfigEnv unsets every variable Load reads so tests see defaults
// regardless of the invoking shell. t.Setenv registers the restore.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DEBUG", "CORS_ORIGINS", "DB_PATH",
		"INFERENCE_SERVICE_URL", "INFERENCE_TIMEOUT",
		"WS_HEARTBEAT_INTERVAL", "SESSION_TTL", "SESSION_SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unsetenv %s: %v", key, err)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Debug {
		t.Error("Debug = true, want false")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if cfg.InferenceServiceURL != "http://localhost:8000" {
		t.Errorf("InferenceServiceURL = %q", cfg.InferenceServiceURL)
	}
	if cfg.InferenceTimeout != 5*time.Second {
		t.Errorf("InferenceTimeout = %v, want 5s", cfg.InferenceTimeout)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", cfg.HeartbeatInterval)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.SessionTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DEBUG", "true")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("INFERENCE_TIMEOUT", "2s")
	t.Setenv("SESSION_TTL", "600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	want := []string{"https://app.example.com", "https://staging.example.com"}
	if len(cfg.CORSOrigins) != len(want) {
		t.Fatalf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
	for i := range want {
		if cfg.CORSOrigins[i] != want[i] {
			t.Errorf("CORSOrigins[%d] = %q, want %q", i, cfg.CORSOrigins[i], want[i])
		}
	}
	if cfg.InferenceTimeout != 2*time.Second {
		t.Errorf("InferenceTimeout = %v, want 2s", cfg.InferenceTimeout)
	}
	// Bare integers read as seconds.
	if cfg.SessionTTL != 10*time.Minute {
		t.Errorf("SessionTTL = %v, want 10m", cfg.SessionTTL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("INFERENCE_TIMEOUT", "-1s")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a negative inference timeout")
	}
}

func TestGetEnvBool(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"Yes", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"off", false},
		{"garbage", false},
	}
	for _, tc := range cases {
		t.Setenv("MORPHOS_TEST_BOOL", tc.value)
		if got := getEnvBool("MORPHOS_TEST_BOOL", false); got != tc.want {
			t.Errorf("getEnvBool(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestGetEnvDuration(t *testing.T) {
	cases := []struct {
		value string
		want  time.Duration
	}{
		{"45s", 45 * time.Second},
		{"2m", 2 * time.Minute},
		{"90", 90 * time.Second},
		{"not-a-duration", 7 * time.Second},
	}
	for _, tc := range cases {
		t.Setenv("MORPHOS_TEST_DURATION", tc.value)
		if got := getEnvDuration("MORPHOS_TEST_DURATION", 7*time.Second); got != tc.want {
			t.Errorf("getEnvDuration(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
