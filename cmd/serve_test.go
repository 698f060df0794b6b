package cmd

import (
	"strings"
	"testing"

	"hugbridge/pkg/config"
)

func TestRunServeRejectsInvalidModelCatalog(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Telegram: config.TelegramConfig{Token: "123456:test-token"},
		Models: []config.ModelConfig{
			{Key: "broken", Endpoint: "https://example.test/broken", Output: "video"},
		},
	}

	err := runServe(cfg, nil)
	if err == nil {
		t.Fatal("expected error for unsupported model output")
	}
	if !strings.Contains(err.Error(), "build model registry") {
		t.Fatalf("error = %v, want registry build failure", err)
	}
}

func TestRunServeRejectsUnknownDefaultModel(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Telegram:     config.TelegramConfig{Token: "123456:test-token"},
		DefaultModel: "missing",
	}

	err := runServe(cfg, nil)
	if err == nil {
		t.Fatal("expected error for unknown default model")
	}
	if !strings.Contains(err.Error(), "initialize model selection") {
		t.Fatalf("error = %v, want model selection failure", err)
	}
}
