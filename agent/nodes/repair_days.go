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

// RepairDays counts days in repair against the 30-day annual warranty limit.
// Requires a VIN; without one the step fails in place and the run continues.
func RepairDays(ctx context.Context, st *statex.QueryContext, m model.BaseChatModel, data contractx.WarrantyData, systemPrompt string) *statex.QueryContext {
	log.Info().Msg("repair days step started")

	result := runRepairDays(ctx, st, m, data, systemPrompt)
	if !result.Success {
		log.Warn().Str("error", result.Error).Msg("repair days analysis failed")
	}

	st.SetResult(contractx.KindRepairDays, result)
	st.MarkStepCompleted(contractx.StepRepairDays)
	return st
}

func runRepairDays(ctx context.Context, st *statex.QueryContext, m model.BaseChatModel, data contractx.WarrantyData, systemPrompt string) *contractx.AnalysisResult {
	if st.VIN == "" {
		return contractx.NewFailureResult(contractx.AgentRepairDays, "VIN требуется для анализа дней в ремонте", nil)
	}

	log.Debug().Str("vin", st.VIN).Msg("fetching warranty days")
	payload, err := data.WarrantyDays(ctx, st.VIN)
	if err != nil {
		msg := fmt.Sprintf("Ошибка дней в ремонте: %v", err)
		st.AddError(msg)
		return contractx.NewFailureResult(contractx.AgentRepairDays, msg, nil)
	}
	if errText, ok := toolError(payload); ok {
		return contractx.NewFailureResult(contractx.AgentRepairDays, fmt.Sprintf("Ошибка MCP: %s", errText), payload)
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(fmt.Sprintf(
			"Запрос пользователя: %s\nVIN: %s\n\nДанные о днях в ремонте:\n%s",
			st.Query, st.VIN, formatPayload(payload),
		)),
	}

	resp, err := m.Generate(ctx, messages)
	if err != nil {
		msg := fmt.Sprintf("Ошибка дней в ремонте: %v", err)
		st.AddError(msg)
		return contractx.NewFailureResult(contractx.AgentRepairDays, msg, nil)
	}

	log.Info().Msg("repair days analysis completed")
	return contractx.NewSuccessResult(contractx.AgentRepairDays, map[string]any{
		contractx.DataKeyAnalysis: resp.Content,
		"raw_data":                payload,
		"vin":                     st.VIN,
	})
}
