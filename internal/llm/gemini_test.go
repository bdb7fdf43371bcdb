package llm

import (
	"context"
	"testing"
)

func TestGenerateConfig_MapsSampling(t *testing.T) {
	cfg := generateConfig(Request{
		System:          "sys",
		Temperature:     0.1,
		TopP:            0.8,
		TopK:            20,
		MaxOutputTokens: 512,
		JSON:            true,
	})
	if cfg.Temperature == nil || *cfg.Temperature != 0.1 {
		t.Fatalf("temperature not mapped")
	}
	if cfg.TopP == nil || *cfg.TopP != 0.8 {
		t.Fatalf("topP not mapped")
	}
	if cfg.TopK == nil || *cfg.TopK != 20 {
		t.Fatalf("topK not mapped")
	}
	if cfg.MaxOutputTokens != 512 {
		t.Fatalf("max tokens not mapped")
	}
	if cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json mime type, got %q", cfg.ResponseMIMEType)
	}
	if cfg.SystemInstruction == nil {
		t.Fatalf("expected system instruction")
	}
}

func TestGenerateConfig_ZeroLeavesDefaults(t *testing.T) {
	cfg := generateConfig(Request{Prompt: "hi"})
	if cfg.Temperature != nil || cfg.TopP != nil || cfg.TopK != nil || cfg.SystemInstruction != nil {
		t.Fatalf("expected unset sampling, got %+v", cfg)
	}
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), "", ""); err == nil {
		t.Fatalf("expected error")
	}
}
