package contract

import "time"

// AnalysisKind identifies one of the three analysis agents.
type AnalysisKind string

const (
	KindRepairDays     AnalysisKind = "repair_days"
	KindCompliance     AnalysisKind = "compliance"
	KindDealerInsights AnalysisKind = "dealer_insights"
)

// AllKinds returns the analysis kinds in execution priority order.
func AllKinds() []AnalysisKind {
	return []AnalysisKind{KindRepairDays, KindCompliance, KindDealerInsights}
}

// Display names of the agents, used in results and reports.
const (
	AgentClassifier     = "Query Classifier"
	AgentRepairDays     = "Repair Days Tracker"
	AgentCompliance     = "Warranty Compliance"
	AgentDealerInsights = "Dealer Insights"
	AgentReport         = "Report & Summary"
)

// Step names recorded in QueryContext.CompletedSteps.
const (
	StepClassifier     = "classifier"
	StepRepairDays     = "repair_days_tracker"
	StepCompliance     = "warranty_compliance"
	StepDealerInsights = "dealer_insights"
	StepReport         = "report_summary"
	StepAggregator     = "response_aggregator"
)

// StepFor maps an analysis kind to its step name.
func StepFor(kind AnalysisKind) string {
	switch kind {
	case KindRepairDays:
		return StepRepairDays
	case KindCompliance:
		return StepCompliance
	case KindDealerInsights:
		return StepDealerInsights
	default:
		return ""
	}
}

// DataKeyAnalysis is the well-known payload key holding the textual analysis
// of an AnalysisResult. The report step reads it when building the answer.
const DataKeyAnalysis = "analysis"

// Classification is produced once by the classifier step and read-only
// afterward.
type Classification struct {
	NeedsRepairDays     bool   `json:"needs_repair_days"`
	NeedsCompliance     bool   `json:"needs_compliance"`
	NeedsDealerInsights bool   `json:"needs_dealer_insights"`
	VIN                 string `json:"vin,omitempty"`
	Reasoning           string `json:"reasoning,omitempty"`
}

// Needs reports whether the given analysis kind was requested.
func (c *Classification) Needs(kind AnalysisKind) bool {
	if c == nil {
		return false
	}
	switch kind {
	case KindRepairDays:
		return c.NeedsRepairDays
	case KindCompliance:
		return c.NeedsCompliance
	case KindDealerInsights:
		return c.NeedsDealerInsights
	default:
		return false
	}
}

// Requested returns how many analyses the classifier asked for.
func (c *Classification) Requested() int {
	n := 0
	for _, kind := range AllKinds() {
		if c.Needs(kind) {
			n++
		}
	}
	return n
}

// AnalysisResult is created by exactly one analysis step and never mutated
// after creation.
type AnalysisResult struct {
	AgentName string         `json:"agent_name"`
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewSuccessResult(agentName string, data map[string]any) *AnalysisResult {
	return &AnalysisResult{
		AgentName: agentName,
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func NewFailureResult(agentName string, errMsg string, data map[string]any) *AnalysisResult {
	return &AnalysisResult{
		AgentName: agentName,
		Success:   false,
		Data:      data,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	}
}

// AnalysisText returns the textual analysis stored in the payload, if any.
func (r *AnalysisResult) AnalysisText() (string, bool) {
	if r == nil || r.Data == nil {
		return "", false
	}
	text, ok := r.Data[DataKeyAnalysis].(string)
	return text, ok
}
