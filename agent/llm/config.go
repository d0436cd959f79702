package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	gigachatx "github.com/avtoassist/warranty-agent/pkg/gigachat"
)

// Role names the graph steps that talk to a model.
type Role string

const (
	RoleClassifier     Role = "classifier"
	RoleRepairDays     Role = "repair_days"
	RoleCompliance     Role = "compliance"
	RoleDealerInsights Role = "dealer_insights"
	RoleReport         Role = "report"
)

// Config carries the shared model endpoint plus per-role overrides. A role
// temperature of -1 means "inherit the shared temperature"; an empty role
// model means "inherit the shared model".
type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true" default:"https://gigachat.devices.sberbank.ru/api/v1"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" default:"GigaChat"`
	MaxTokens   int           `envconfig:"MAX_TOKENS" split_words:"true" default:"2000"`
	Temperature float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.3"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`

	ClassifierModel     string `envconfig:"CLASSIFIER_MODEL" split_words:"true"`
	RepairDaysModel     string `envconfig:"REPAIR_DAYS_MODEL" split_words:"true"`
	ComplianceModel     string `envconfig:"COMPLIANCE_MODEL" split_words:"true"`
	DealerInsightsModel string `envconfig:"DEALER_INSIGHTS_MODEL" split_words:"true"`
	ReportModel         string `envconfig:"REPORT_MODEL" split_words:"true"`

	ClassifierTemperature     float32 `envconfig:"CLASSIFIER_TEMPERATURE" split_words:"true" default:"-1"`
	RepairDaysTemperature     float32 `envconfig:"REPAIR_DAYS_TEMPERATURE" split_words:"true" default:"-1"`
	ComplianceTemperature     float32 `envconfig:"COMPLIANCE_TEMPERATURE" split_words:"true" default:"-1"`
	DealerInsightsTemperature float32 `envconfig:"DEALER_INSIGHTS_TEMPERATURE" split_words:"true" default:"-1"`
	ReportTemperature         float32 `envconfig:"REPORT_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: gigachat api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// GigaChatFor resolves the effective endpoint config for a role.
func (c Config) GigaChatFor(role Role) gigachatx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(model string, temperature float32) {
		if v := strings.TrimSpace(model); v != "" {
			modelName = v
		}
		if temperature >= 0 {
			temp = temperature
		}
	}

	switch role {
	case RoleClassifier:
		override(c.ClassifierModel, c.ClassifierTemperature)
	case RoleRepairDays:
		override(c.RepairDaysModel, c.RepairDaysTemperature)
	case RoleCompliance:
		override(c.ComplianceModel, c.ComplianceTemperature)
	case RoleDealerInsights:
		override(c.DealerInsightsModel, c.DealerInsightsTemperature)
	case RoleReport:
		override(c.ReportModel, c.ReportTemperature)
	}

	maxTokens := c.MaxTokens
	return gigachatx.Config{
		BaseURL:     strings.TrimSpace(c.BaseURL),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       modelName,
		MaxTokens:   &maxTokens,
		Temperature: temp,
		Timeout:     c.Timeout,
	}
}
