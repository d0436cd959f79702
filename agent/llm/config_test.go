package llm

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
)

func baseConfig() Config {
	return Config{
		BaseURL:                   "https://gigachat.devices.sberbank.ru/api/v1",
		APIKey:                    "key",
		Model:                     "GigaChat",
		MaxTokens:                 2000,
		Temperature:               0.3,
		Timeout:                   time.Minute,
		ClassifierTemperature:     -1,
		RepairDaysTemperature:     -1,
		ComplianceTemperature:     -1,
		DealerInsightsTemperature: -1,
		ReportTemperature:         -1,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cfg.APIKey = "  "
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGigaChatForInheritsDefaults(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	mc := cfg.GigaChatFor(RoleRepairDays)
	if mc.Model != "GigaChat" {
		t.Fatalf("model = %q", mc.Model)
	}
	if mc.Temperature != 0.3 {
		t.Fatalf("temperature = %v", mc.Temperature)
	}
}

func TestGigaChatForAppliesOverrides(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.ClassifierModel = "GigaChat-Pro"
	cfg.ClassifierTemperature = 0

	mc := cfg.GigaChatFor(RoleClassifier)
	if mc.Model != "GigaChat-Pro" {
		t.Fatalf("model = %q", mc.Model)
	}
	if mc.Temperature != 0 {
		t.Fatalf("temperature = %v, zero override must apply", mc.Temperature)
	}

	other := cfg.GigaChatFor(RoleReport)
	if other.Model != "GigaChat" || other.Temperature != 0.3 {
		t.Fatalf("report role must not inherit classifier overrides: %+v", other)
	}
}
