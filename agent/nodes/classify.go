// Package nodes holds the graph steps of the warranty query pipeline. Every
// node takes the shared QueryContext, mutates it and hands it back; failures
// are recorded on the context, never returned.
package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	statex "github.com/avtoassist/warranty-agent/agent/state"
)

// Classify determines which analyses the query needs and extracts the VIN
// when it appears in the query. On any failure the context gets a default
// all-false classification so the run can still produce a clarification.
func Classify(ctx context.Context, st *statex.QueryContext, m model.BaseChatModel, systemPrompt string) *statex.QueryContext {
	log.Info().Msg("classifier step started")

	classification, err := runClassifier(ctx, st, m, systemPrompt)
	if err != nil {
		log.Error().Err(err).Msg("classifier failed")
		st.AddError(fmt.Sprintf("Ошибка классификации: %v", err))
		classification = &contractx.Classification{
			Reasoning: "Ошибка классификации, используются значения по умолчанию",
		}
	}

	st.Classification = classification
	if classification.VIN != "" && st.VIN == "" {
		st.VIN = classification.VIN
		log.Info().Str("vin", classification.VIN).Msg("vin extracted from query")
	}

	st.MarkStepCompleted(contractx.StepClassifier)

	log.Info().
		Bool("repair_days", classification.NeedsRepairDays).
		Bool("compliance", classification.NeedsCompliance).
		Bool("dealer_insights", classification.NeedsDealerInsights).
		Msg("classification completed")

	return st
}

func runClassifier(ctx context.Context, st *statex.QueryContext, m model.BaseChatModel, systemPrompt string) (*contractx.Classification, error) {
	userContext := "Нет"
	if len(st.UserContext) > 0 {
		raw, err := json.Marshal(st.UserContext)
		if err != nil {
			return nil, fmt.Errorf("encode user context: %w", err)
		}
		userContext = string(raw)
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(fmt.Sprintf("Запрос пользователя: %s\nКонтекст: %s", st.Query, userContext)),
	}

	resp, err := m.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier: %v", contractx.ErrModelInvoke, err)
	}

	log.Debug().Str("response", resp.Content).Msg("classifier raw response")
	return ParseClassification(resp.Content), nil
}
