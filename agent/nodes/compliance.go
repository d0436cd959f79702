package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	statex "github.com/avtoassist/warranty-agent/agent/state"
)

// ComplianceOptions tunes the compliance step.
type ComplianceOptions struct {
	// Summarize sends retrieved policy excerpts through the model. When
	// false the excerpts are returned verbatim as the analysis.
	Summarize bool
}

// Compliance answers warranty-policy questions from the retrieval base. The
// search query is enriched with the 30-day escalation phrase when a prior
// repair-days result shows a year close to the limit.
func Compliance(ctx context.Context, st *statex.QueryContext, m model.BaseChatModel, data contractx.WarrantyData, systemPrompt string, opts ComplianceOptions) *statex.QueryContext {
	log.Info().Msg("compliance step started")

	result := runCompliance(ctx, st, m, data, systemPrompt, opts)
	if !result.Success {
		log.Warn().Str("error", result.Error).Msg("compliance analysis failed")
	}

	st.SetResult(contractx.KindCompliance, result)
	st.MarkStepCompleted(contractx.StepCompliance)
	return st
}

func runCompliance(ctx context.Context, st *statex.QueryContext, m model.BaseChatModel, data contractx.WarrantyData, systemPrompt string, opts ComplianceOptions) *contractx.AnalysisResult {
	searchQuery := buildComplianceQuery(st)
	log.Debug().Str("search_query", searchQuery).Msg("compliance retrieval")

	payload, err := data.ComplianceSearch(ctx, searchQuery)
	if err != nil {
		msg := fmt.Sprintf("Ошибка соответствия: %v", err)
		st.AddError(msg)
		return contractx.NewFailureResult(contractx.AgentCompliance, msg, nil)
	}
	if errText, ok := toolError(payload); ok {
		return contractx.NewFailureResult(contractx.AgentCompliance, fmt.Sprintf("Ошибка MCP: %s", errText), payload)
	}

	analysis := formatPayload(payload)
	if opts.Summarize {
		messages := []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(fmt.Sprintf(
				"Запрос пользователя: %s\n\nВыдержки из гарантийной политики:\n%s",
				st.Query, analysis,
			)),
		}

		resp, err := m.Generate(ctx, messages)
		if err != nil {
			msg := fmt.Sprintf("Ошибка соответствия: %v", err)
			st.AddError(msg)
			return contractx.NewFailureResult(contractx.AgentCompliance, msg, nil)
		}
		analysis = resp.Content
	}

	log.Info().Msg("compliance analysis completed")
	return contractx.NewSuccessResult(contractx.AgentCompliance, map[string]any{
		contractx.DataKeyAnalysis: analysis,
		"raw_data":                payload,
		"search_query":            searchQuery,
	})
}

// buildComplianceQuery starts from the user query and appends the escalation
// phrase when any year in the repair-days raw data exceeds 25 days.
func buildComplianceQuery(st *statex.QueryContext) string {
	query := st.Query

	result := st.Result(contractx.KindRepairDays)
	if result == nil || !result.Success || result.Data == nil {
		return query
	}
	rawData, ok := result.Data["raw_data"].(map[string]any)
	if !ok {
		return query
	}
	for _, v := range rawData {
		if days, ok := asNumber(v); ok && days > 25 {
			return query + " 30 дней ремонте, как действовать клиентской службе"
		}
	}
	return query
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
