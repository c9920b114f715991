package config

import (
	"testing"
)

// fakeBackend is an in-memory ConfigBackend for tests.
type fakeBackend struct {
	data map[string]any
}

func (f *fakeBackend) GetString(key string) (string, bool, error) {
	v, ok := f.data[key]
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (f *fakeBackend) GetInt(key string) (int, bool, error) {
	v, ok := f.data[key]
	if !ok {
		return 0, false, nil
	}
	return v.(int), true, nil
}

func (f *fakeBackend) SetString(key, val string) error { f.data[key] = val; return nil }
func (f *fakeBackend) SetInt(key string, val int) error { f.data[key] = val; return nil }
func (f *fakeBackend) Delete(key string) error          { delete(f.data, key); return nil }

func TestDefaults(t *testing.T) {
	t.Setenv("REPCRM_GROQ_API_KEY", "test-key")

	cfg, err := loadWith(&fakeBackend{data: map[string]any{}})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 4500 {
		t.Errorf("Server.Port = %d, want 4500", cfg.Server.Port)
	}
	if cfg.Groq.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("Groq.BaseURL = %q", cfg.Groq.BaseURL)
	}
	if cfg.Groq.Model != "gemma2-9b-it" {
		t.Errorf("Groq.Model = %q, want gemma2-9b-it", cfg.Groq.Model)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestBackendValuesApplied(t *testing.T) {
	t.Setenv("REPCRM_GROQ_API_KEY", "test-key")

	b := &fakeBackend{data: map[string]any{
		"server.port": 9000,
		"groq.model":  "llama-3.1-8b-instant",
	}}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Groq.Model != "llama-3.1-8b-instant" {
		t.Errorf("Groq.Model = %q, want backend value", cfg.Groq.Model)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	t.Setenv("REPCRM_GROQ_API_KEY", "test-key")
	t.Setenv("REPCRM_SERVER_PORT", "7100")

	b := &fakeBackend{data: map[string]any{"server.port": 9000}}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want env override 7100", cfg.Server.Port)
	}
}

func TestMissingAPIKey(t *testing.T) {
	t.Setenv("REPCRM_GROQ_API_KEY", "")

	_, err := loadWith(&fakeBackend{data: map[string]any{}})
	if err == nil {
		t.Fatal("loadWith returned nil error with no API key")
	}
}

func TestSecretNotShown(t *testing.T) {
	t.Setenv("REPCRM_GROQ_API_KEY", "super-secret")

	cfg, err := loadWith(&fakeBackend{data: map[string]any{}})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	for _, k := range ShowAll(cfg) {
		if k.Value == "super-secret" {
			t.Errorf("ShowAll leaked the API key under %q", k.Key)
		}
	}
}
