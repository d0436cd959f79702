package nodes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	statex "github.com/avtoassist/warranty-agent/agent/state"
	formatx "github.com/avtoassist/warranty-agent/pkg/format"
)

// Report builds the final answer from the collected analysis results. When
// the classifier requested nothing it produces a deterministic clarification
// without touching the model; when the model fails it falls back to a plain
// assembled report. The step always leaves FinalResponse non-empty.
func Report(ctx context.Context, st *statex.QueryContext, m model.BaseChatModel, systemPrompt string, now func() time.Time) *statex.QueryContext {
	log.Info().Msg("report step started")

	if st.Classification == nil || st.Classification.Requested() == 0 {
		log.Info().Msg("no analyses requested, returning clarification")
		st.FinalResponse = clarificationResponse(st)
		st.EndedAt = now().UTC()
		st.MarkStepCompleted(contractx.StepReport)
		return st
	}

	report, err := runReport(ctx, st, m, systemPrompt)
	if err != nil {
		log.Error().Err(err).Msg("report generation failed")
		st.AddError(fmt.Sprintf("Ошибка отчёта: %v", err))
		report = fallbackReport(st)
	}

	st.FinalResponse = report
	st.EndedAt = now().UTC()

	var agentsUsed []string
	for _, result := range st.AllResults() {
		if result.Success {
			agentsUsed = append(agentsUsed, result.AgentName)
		}
	}
	st.SetMeta("agents_used", agentsUsed)
	st.SetMeta("execution_time_seconds", st.ExecutionTime().Seconds())
	st.SetMeta("has_errors", st.HasErrors())

	st.MarkStepCompleted(contractx.StepReport)
	return st
}

func runReport(ctx context.Context, st *statex.QueryContext, m model.BaseChatModel, systemPrompt string) (string, error) {
	sections := collectSections(st)
	agentData := "Данные не найдены"
	if len(sections) > 0 {
		agentData = strings.Join(sections, "\n\n")
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(fmt.Sprintf(
			"Запрос пользователя: %s\n\nРезультаты аналитиков:\n%s",
			st.Query, agentData,
		)),
	}

	resp, err := m.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: report: %v", contractx.ErrModelInvoke, err)
	}

	log.Info().Msg("report generation completed")
	return resp.Content, nil
}

// collectSections builds one labeled section per requested analysis. Skipped
// analyses get no section at all; requested ones always get one, even when
// they failed.
func collectSections(st *statex.QueryContext) []string {
	labels := map[contractx.AnalysisKind]string{
		contractx.KindRepairDays:     "ДАННЫЕ О ДНЯХ В РЕМОНТЕ:",
		contractx.KindCompliance:     "ГАРАНТИЙНАЯ ПОЛИТИКА:",
		contractx.KindDealerInsights: "ИСТОРИЯ РЕМОНТОВ:",
	}

	var sections []string
	for _, kind := range contractx.AllKinds() {
		if !st.Classification.Needs(kind) {
			continue
		}
		if text := displayText(st.Result(kind)); text != "" {
			sections = append(sections, labels[kind]+"\n"+text)
		}
	}
	return sections
}

func displayText(result *contractx.AnalysisResult) string {
	if result == nil {
		return "Данные не найдены"
	}
	if !result.Success {
		errText := result.Error
		if errText == "" {
			errText = "Неизвестная ошибка"
		}
		return "Ошибка: " + errText
	}
	if text, ok := result.AnalysisText(); ok {
		return text
	}
	return "Результат получен, но анализ недоступен"
}

func clarificationResponse(st *statex.QueryContext) string {
	return fmt.Sprintf(
		"К сожалению, я не смог определить, какой тип анализа вам нужен для запроса: %q.\n\n"+
			"Пожалуйста, уточните ваш запрос. Я могу помочь с:\n\n"+
			"**Анализ дней в ремонте:**\n"+
			"- Сколько дней автомобиль был в ремонте?\n"+
			"- Есть ли превышение 30-дневного лимита?\n\n"+
			"**Гарантийная политика и контакты:**\n"+
			"- Какие контакты клиентской службы?\n"+
			"- Какая процедура гарантийного обращения?\n"+
			"- Какие документы нужны?\n\n"+
			"**История ремонтов:**\n"+
			"- Покажи историю обслуживания автомобиля\n"+
			"- Какие ремонты были у дилера?\n",
		st.Query,
	)
}

// fallbackReport assembles a plain report when the model is unavailable.
func fallbackReport(st *statex.QueryContext) string {
	vin := st.VIN
	if vin == "" {
		vin = "Не указан"
	}

	lines := []string{
		"# ОТЧЁТ ПО ЗАПРОСУ",
		"",
		fmt.Sprintf("**Запрос:** %s", st.Query),
		fmt.Sprintf("**VIN:** %s", vin),
		fmt.Sprintf("**Дата запроса:** %s", formatx.DateTime(st.StartedAt)),
		"",
		"## Результаты анализа",
		"",
	}

	for _, result := range st.AllResults() {
		lines = append(lines, fmt.Sprintf("### %s", result.AgentName))
		if result.Success {
			lines = append(lines, "Статус: Выполнено успешно")
			if text, ok := result.AnalysisText(); ok {
				lines = append(lines, "", text)
			}
			if result.AgentName == contractx.AgentRepairDays {
				if table := repairDaysTable(result); table != "" {
					lines = append(lines, "", table)
				}
			}
		} else {
			lines = append(lines, fmt.Sprintf("Статус: Ошибка - %s", result.Error))
		}
		lines = append(lines, "")
	}

	if st.HasErrors() {
		lines = append(lines, "## Ошибки")
		for _, errText := range st.Errors {
			lines = append(lines, fmt.Sprintf("- %s", errText))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "---", "*Отчёт сгенерирован автоматически*")
	return strings.Join(lines, "\n")
}

// repairDaysTable renders the per-year day counts from the raw payload.
func repairDaysTable(result *contractx.AnalysisResult) string {
	rawData, ok := result.Data["raw_data"].(map[string]any)
	if !ok {
		return ""
	}

	var years []string
	for year, v := range rawData {
		if _, ok := asNumber(v); ok {
			years = append(years, year)
		}
	}
	if len(years) == 0 {
		return ""
	}
	sort.Strings(years)

	rows := make([][]string, 0, len(years))
	for _, year := range years {
		days, _ := asNumber(rawData[year])
		rows = append(rows, []string{year, formatx.Days(int(days))})
	}
	return formatx.Table(rows)
}
