package nodes

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	statex "github.com/avtoassist/warranty-agent/agent/state"
)

// Aggregate is the final validation pass over the run: it guarantees the end
// timestamp and a non-empty final response, and records run totals in the
// metadata. Most of the answer assembly already happened in the report step.
func Aggregate(st *statex.QueryContext, now func() time.Time) *statex.QueryContext {
	log.Info().Msg("aggregation step started")

	if st.EndedAt.IsZero() {
		st.EndedAt = now().UTC()
	}

	if st.FinalResponse == "" {
		log.Warn().Msg("final response missing, building summary")
		st.FinalResponse = summaryResponse(st)
	}

	st.SetMeta("total_steps", len(st.CompletedSteps))
	st.SetMeta("completed_steps", append([]string(nil), st.CompletedSteps...))
	st.SetMeta("total_errors", len(st.Errors))
	st.SetMeta("final_execution_time", st.ExecutionTime().Seconds())

	st.MarkStepCompleted(contractx.StepAggregator)

	log.Info().
		Int("steps", len(st.CompletedSteps)).
		Int("errors", len(st.Errors)).
		Dur("execution_time", st.ExecutionTime()).
		Msg("aggregation completed")

	return st
}

// summaryResponse is the last-resort answer when every upstream step failed
// to set one.
func summaryResponse(st *statex.QueryContext) string {
	lines := []string{
		"# Результаты анализа",
		"",
		fmt.Sprintf("Запрос: %s", st.Query),
		"",
	}

	if c := st.Classification; c != nil {
		var planned []string
		if c.NeedsRepairDays {
			planned = append(planned, "Анализ дней простоя")
		}
		if c.NeedsCompliance {
			planned = append(planned, "Анализ гарантийной политики")
		}
		if c.NeedsDealerInsights {
			planned = append(planned, "Анализ истории ремонтов")
		}
		if len(planned) > 0 {
			lines = append(lines, "Запланированные анализы:")
			for _, name := range planned {
				lines = append(lines, fmt.Sprintf("- %s", name))
			}
			lines = append(lines, "")
		}
	}

	if results := st.AllResults(); len(results) > 0 {
		lines = append(lines, "## Результаты:", "")
		for _, result := range results {
			status := "✓"
			if !result.Success {
				status = "✗"
			}
			lines = append(lines, fmt.Sprintf("%s **%s**", status, result.AgentName))

			if text, ok := result.AnalysisText(); ok && result.Success {
				lines = append(lines, "  "+firstParagraph(text, 200))
			} else if !result.Success {
				lines = append(lines, fmt.Sprintf("  Ошибка: %s", result.Error))
			}
			lines = append(lines, "")
		}
	}

	if st.HasErrors() {
		lines = append(lines, "## Возникшие ошибки:")
		for _, errText := range st.Errors {
			lines = append(lines, fmt.Sprintf("- %s", errText))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func firstParagraph(text string, limit int) string {
	para, _, _ := strings.Cut(text, "\n\n")
	runes := []rune(para)
	if len(runes) <= limit {
		return para
	}
	return string(runes[:limit]) + "..."
}
