package nodes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	statex "github.com/avtoassist/warranty-agent/agent/state"
)

func TestReportNoAnalysesRequested(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{}
	st := statex.New("привет", "", nil)
	st.Classification = &contractx.Classification{}

	Report(context.Background(), st, fake, "prompt", fixedNow)

	if st.FinalResponse == "" {
		t.Fatal("final response must be set")
	}
	if !strings.Contains(st.FinalResponse, "привет") {
		t.Fatal("clarification must quote the original query")
	}
	for _, hint := range []string{"Анализ дней в ремонте", "Гарантийная политика", "История ремонтов"} {
		if !strings.Contains(st.FinalResponse, hint) {
			t.Fatalf("clarification is missing %q", hint)
		}
	}
	if len(fake.inputs) != 0 {
		t.Fatal("model must not be called for a clarification")
	}
	if st.EndedAt.IsZero() {
		t.Fatal("report must stamp the end time")
	}
}

func TestReportSingleAnalysis(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{responses: responses("Автомобиль был в ремонте 12 дней, лимит не превышен.")}
	st := statex.New("сколько дней в ремонте", "Z94C251BBLR102931", nil)
	st.Classification = &contractx.Classification{NeedsRepairDays: true}
	st.SetResult(contractx.KindRepairDays, contractx.NewSuccessResult(contractx.AgentRepairDays, map[string]any{
		contractx.DataKeyAnalysis: "12 дней в 2023 году",
	}))

	Report(context.Background(), st, fake, "prompt", fixedNow)

	if !strings.Contains(st.FinalResponse, "лимит не превышен") {
		t.Fatalf("final response = %q", st.FinalResponse)
	}

	prompt := fake.inputs[0][1].Content
	if !strings.Contains(prompt, "ДАННЫЕ О ДНЯХ В РЕМОНТЕ:") {
		t.Fatalf("prompt is missing the repair days section: %q", prompt)
	}
	if strings.Contains(prompt, "ГАРАНТИЙНАЯ ПОЛИТИКА:") || strings.Contains(prompt, "ИСТОРИЯ РЕМОНТОВ:") {
		t.Fatalf("prompt must not include sections for skipped analyses: %q", prompt)
	}

	agentsUsed, ok := st.Metadata["agents_used"].([]string)
	if !ok || len(agentsUsed) != 1 || agentsUsed[0] != contractx.AgentRepairDays {
		t.Fatalf("agents_used = %v", st.Metadata["agents_used"])
	}
}

func TestReportIncludesFailedSection(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{responses: responses("итог")}
	st := statex.New("query", "", nil)
	st.Classification = &contractx.Classification{NeedsRepairDays: true}
	st.SetResult(contractx.KindRepairDays, contractx.NewFailureResult(contractx.AgentRepairDays, "VIN требуется для анализа дней в ремонте", nil))

	Report(context.Background(), st, fake, "prompt", fixedNow)

	prompt := fake.inputs[0][1].Content
	if !strings.Contains(prompt, "Ошибка: VIN требуется") {
		t.Fatalf("failed analysis must appear as an error section: %q", prompt)
	}

	agentsUsed, _ := st.Metadata["agents_used"].([]string)
	if len(agentsUsed) != 0 {
		t.Fatalf("failed agent must not count as used: %v", agentsUsed)
	}
}

func TestReportFallbackOnModelFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{err: errors.New("endpoint down")}
	st := statex.NewAt("сколько дней в ремонте", "Z94C251BBLR102931", nil, fixedNow())
	st.Classification = &contractx.Classification{NeedsRepairDays: true}
	st.SetResult(contractx.KindRepairDays, contractx.NewSuccessResult(contractx.AgentRepairDays, map[string]any{
		contractx.DataKeyAnalysis: "12 дней",
		"raw_data":                map[string]any{"2023": float64(12)},
	}))

	Report(context.Background(), st, fake, "prompt", fixedNow)

	if st.FinalResponse == "" {
		t.Fatal("fallback report must be set")
	}
	for _, want := range []string{
		"ОТЧЁТ ПО ЗАПРОСУ",
		"Z94C251BBLR102931",
		"10.02.2026 12:00",
		contractx.AgentRepairDays,
		"12 дней",
	} {
		if !strings.Contains(st.FinalResponse, want) {
			t.Fatalf("fallback report is missing %q:\n%s", want, st.FinalResponse)
		}
	}
	if !st.HasErrors() {
		t.Fatal("report failure must be recorded")
	}
}

func TestReportFallbackWithoutVIN(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{err: errors.New("down")}
	st := statex.New("query", "", nil)
	st.Classification = &contractx.Classification{NeedsCompliance: true}

	Report(context.Background(), st, fake, "prompt", fixedNow)

	if !strings.Contains(st.FinalResponse, "Не указан") {
		t.Fatalf("fallback must show a placeholder VIN:\n%s", st.FinalResponse)
	}
}

func TestAggregateStampsEndAndMetadata(t *testing.T) {
	t.Parallel()

	st := statex.NewAt("query", "", nil, fixedNow())
	st.MarkStepCompleted(contractx.StepClassifier)
	st.FinalResponse = "ответ"

	Aggregate(st, fixedNow)

	if st.EndedAt.IsZero() {
		t.Fatal("aggregate must stamp the end time")
	}
	// total_steps counts the steps that ran before aggregation.
	if st.Metadata["total_steps"] != 1 {
		t.Fatalf("total_steps = %v", st.Metadata["total_steps"])
	}
	if st.Metadata["total_errors"] != 0 {
		t.Fatalf("total_errors = %v", st.Metadata["total_errors"])
	}
	if !st.StepCompleted(contractx.StepAggregator) {
		t.Fatal("aggregator step must be marked completed")
	}
}

func TestAggregateKeepsExistingEndTime(t *testing.T) {
	t.Parallel()

	st := statex.NewAt("query", "", nil, fixedNow())
	earlier := fixedNow().Add(-time.Minute)
	st.EndedAt = earlier
	st.FinalResponse = "ответ"

	Aggregate(st, fixedNow)

	if !st.EndedAt.Equal(earlier) {
		t.Fatalf("end time was overwritten: %v", st.EndedAt)
	}
}

func TestAggregateBuildsSummaryWhenResponseMissing(t *testing.T) {
	t.Parallel()

	st := statex.New("сколько дней в ремонте", "", nil)
	st.Classification = &contractx.Classification{NeedsRepairDays: true}
	st.SetResult(contractx.KindRepairDays, contractx.NewFailureResult(contractx.AgentRepairDays, "boom", nil))
	st.AddError("boom")

	Aggregate(st, fixedNow)

	if st.FinalResponse == "" {
		t.Fatal("aggregate must synthesize a response")
	}
	for _, want := range []string{"Результаты анализа", "Анализ дней простоя", "boom"} {
		if !strings.Contains(st.FinalResponse, want) {
			t.Fatalf("summary is missing %q:\n%s", want, st.FinalResponse)
		}
	}
}
