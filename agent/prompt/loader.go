package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/repair_days.txt
	repairDaysRaw string

	//go:embed template/compliance.txt
	complianceRaw string

	//go:embed template/dealer_insights.txt
	dealerInsightsRaw string

	//go:embed template/report_summary.txt
	reportSummaryRaw string
)

// PromptSet holds the system prompt for every graph step that talks to a
// model.
type PromptSet struct {
	Classifier     string
	RepairDays     string
	Compliance     string
	DealerInsights string
	ReportSummary  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
// This is safe to call concurrently; the embed is compile-time, and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier:     strings.TrimSpace(classifierRaw),
		RepairDays:     strings.TrimSpace(repairDaysRaw),
		Compliance:     strings.TrimSpace(complianceRaw),
		DealerInsights: strings.TrimSpace(dealerInsightsRaw),
		ReportSummary:  strings.TrimSpace(reportSummaryRaw),
	}
}
