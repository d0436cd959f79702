package orchestrator

import (
	"github.com/rs/zerolog/log"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	statex "github.com/avtoassist/warranty-agent/agent/state"
)

// routeAfterClassifier picks the first step to run from the classification.
// A missing classification or one with no analyses requested goes straight
// to the report.
func routeAfterClassifier(st *statex.QueryContext) string {
	if st.Classification == nil {
		log.Warn().Msg("classification missing, routing to report")
		return contractx.StepReport
	}
	if st.Classification.Requested() == 0 {
		log.Info().Msg("no analyses requested, routing to report")
		return contractx.StepReport
	}
	return nextAnalysisStep(st)
}

// nextAnalysisStep returns the highest-priority requested analysis that has
// not run yet, or the report step when all requested analyses are done.
// Priority is fixed: repair days, then compliance, then dealer insights.
func nextAnalysisStep(st *statex.QueryContext) string {
	if st.Classification == nil {
		return contractx.StepReport
	}
	for _, kind := range contractx.AllKinds() {
		step := contractx.StepFor(kind)
		if st.Classification.Needs(kind) && !st.StepCompleted(step) {
			log.Info().Str("step", step).Msg("routing to analysis step")
			return step
		}
	}
	log.Info().Msg("all requested analyses completed, routing to report")
	return contractx.StepReport
}
