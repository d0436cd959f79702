package state

import (
	"time"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
)

// QueryContext is the per-request state object threaded through every step
// of the query graph. Steps mutate it and hand it back to the orchestrator;
// only the orchestrator decides what runs next.
type QueryContext struct {
	// Input, set once at creation.
	Query       string
	VIN         string
	UserContext map[string]any

	// Set exactly once by the classifier step.
	Classification *contractx.Classification

	// Execution tracking. CompletedSteps is append-only and doubles as the
	// routing engine's "already ran" check.
	CurrentStep    string
	CompletedSteps []string

	// One slot per analysis kind, each set at most once by its step.
	RepairDaysResult     *contractx.AnalysisResult
	ComplianceResult     *contractx.AnalysisResult
	DealerInsightsResult *contractx.AnalysisResult

	// Aggregated answer and run metadata.
	FinalResponse string
	Metadata      map[string]any

	// Append-only, never cleared during a run.
	Errors []string

	StartedAt time.Time
	EndedAt   time.Time // zero until the report or aggregator step stamps it
}

// New creates a QueryContext for a fresh request.
func New(query, vin string, userContext map[string]any) *QueryContext {
	return NewAt(query, vin, userContext, time.Now())
}

// NewAt is New with an explicit start time, for deterministic tests.
func NewAt(query, vin string, userContext map[string]any, now time.Time) *QueryContext {
	if userContext == nil {
		userContext = map[string]any{}
	}
	return &QueryContext{
		Query:       query,
		VIN:         vin,
		UserContext: userContext,
		CurrentStep: "start",
		Metadata:    map[string]any{},
		StartedAt:   now.UTC(),
	}
}

// AddError appends an error message to the run's error list.
func (s *QueryContext) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// HasErrors reports whether any step recorded an error.
func (s *QueryContext) HasErrors() bool {
	return len(s.Errors) > 0
}

// MarkStepCompleted records a step as done. A step name is appended at most
// once; CurrentStep always moves.
func (s *QueryContext) MarkStepCompleted(step string) {
	if !s.StepCompleted(step) {
		s.CompletedSteps = append(s.CompletedSteps, step)
	}
	s.CurrentStep = step
}

// StepCompleted reports whether the named step already ran.
func (s *QueryContext) StepCompleted(step string) bool {
	for _, done := range s.CompletedSteps {
		if done == step {
			return true
		}
	}
	return false
}

// SetResult stores an analysis result into its slot. Slots are write-once;
// a second write for the same kind is ignored.
func (s *QueryContext) SetResult(kind contractx.AnalysisKind, result *contractx.AnalysisResult) {
	switch kind {
	case contractx.KindRepairDays:
		if s.RepairDaysResult == nil {
			s.RepairDaysResult = result
		}
	case contractx.KindCompliance:
		if s.ComplianceResult == nil {
			s.ComplianceResult = result
		}
	case contractx.KindDealerInsights:
		if s.DealerInsightsResult == nil {
			s.DealerInsightsResult = result
		}
	}
}

// Result returns the stored result for a kind, or nil.
func (s *QueryContext) Result(kind contractx.AnalysisKind) *contractx.AnalysisResult {
	switch kind {
	case contractx.KindRepairDays:
		return s.RepairDaysResult
	case contractx.KindCompliance:
		return s.ComplianceResult
	case contractx.KindDealerInsights:
		return s.DealerInsightsResult
	default:
		return nil
	}
}

// AllResults returns every populated analysis result in priority order.
func (s *QueryContext) AllResults() []*contractx.AnalysisResult {
	var results []*contractx.AnalysisResult
	for _, kind := range contractx.AllKinds() {
		if r := s.Result(kind); r != nil {
			results = append(results, r)
		}
	}
	return results
}

// SetMeta records a metadata value.
func (s *QueryContext) SetMeta(key string, value any) {
	if s.Metadata == nil {
		s.Metadata = map[string]any{}
	}
	s.Metadata[key] = value
}

// ExecutionTime returns the elapsed run duration, or zero while the run has
// not ended yet.
func (s *QueryContext) ExecutionTime() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}
