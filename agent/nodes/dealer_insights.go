package nodes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	statex "github.com/avtoassist/warranty-agent/agent/state"
)

// DealerInsights analyzes the dealer service history of a vehicle across
// warranty claims, scheduled maintenance and repair orders. All three
// sources are fetched concurrently; if any of them fails the step reports
// every failure, not just the first one.
func DealerInsights(ctx context.Context, st *statex.QueryContext, m model.BaseChatModel, data contractx.WarrantyData, systemPrompt string) *statex.QueryContext {
	log.Info().Msg("dealer insights step started")

	result := runDealerInsights(ctx, st, m, data, systemPrompt)
	if !result.Success {
		log.Warn().Str("error", result.Error).Msg("dealer insights analysis failed")
	}

	st.SetResult(contractx.KindDealerInsights, result)
	st.MarkStepCompleted(contractx.StepDealerInsights)
	return st
}

func runDealerInsights(ctx context.Context, st *statex.QueryContext, m model.BaseChatModel, data contractx.WarrantyData, systemPrompt string) *contractx.AnalysisResult {
	if st.VIN == "" {
		return contractx.NewFailureResult(contractx.AgentDealerInsights, "VIN требуется для анализа дилерской истории", nil)
	}

	log.Debug().Str("vin", st.VIN).Msg("fetching dealer history")

	type fetch struct {
		name string
		call func(context.Context, string) (map[string]any, error)

		payload map[string]any
		err     error
	}
	fetches := []*fetch{
		{name: "warranty_history", call: data.WarrantyHistory},
		{name: "maintenance_history", call: data.MaintenanceHistory},
		{name: "vehicle_repairs_history", call: data.VehicleRepairsHistory},
	}

	var wg sync.WaitGroup
	for _, f := range fetches {
		wg.Add(1)
		go func(f *fetch) {
			defer wg.Done()
			f.payload, f.err = f.call(ctx, st.VIN)
		}(f)
	}
	wg.Wait()

	var failures []string
	for _, f := range fetches {
		if f.err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", f.name, f.err))
			f.payload = map[string]any{}
			continue
		}
		if errText, ok := toolError(f.payload); ok {
			failures = append(failures, fmt.Sprintf("%s: %s", f.name, errText))
		}
	}

	warrantyHistory := fetches[0].payload
	maintenanceHistory := fetches[1].payload
	repairsHistory := fetches[2].payload

	if len(failures) > 0 {
		msg := fmt.Sprintf("Ошибки MCP: %s", strings.Join(failures, "; "))
		return contractx.NewFailureResult(contractx.AgentDealerInsights, msg, map[string]any{
			"warranty_history":    warrantyHistory,
			"maintenance_history": maintenanceHistory,
			"repairs_history":     repairsHistory,
		})
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(fmt.Sprintf(
			"Запрос пользователя: %s\nVIN: %s\n\nГарантийная история:\n%s\n\nИстория ТО:\n%s\n\nИстория ремонтов:\n%s",
			st.Query, st.VIN,
			formatPayload(warrantyHistory),
			formatPayload(maintenanceHistory),
			formatPayload(repairsHistory),
		)),
	}

	resp, err := m.Generate(ctx, messages)
	if err != nil {
		msg := fmt.Sprintf("Ошибка дилерской истории: %v", err)
		st.AddError(msg)
		return contractx.NewFailureResult(contractx.AgentDealerInsights, msg, nil)
	}

	log.Info().Msg("dealer insights analysis completed")
	return contractx.NewSuccessResult(contractx.AgentDealerInsights, map[string]any{
		contractx.DataKeyAnalysis: resp.Content,
		"warranty_history":        warrantyHistory,
		"maintenance_history":     maintenanceHistory,
		"repairs_history":         repairsHistory,
		"vin":                     st.VIN,
	})
}
