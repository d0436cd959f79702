package nodes

import "testing"

func TestParseClassificationJSON(t *testing.T) {
	t.Parallel()

	c := ParseClassification(`{"needs_repair_days": true, "needs_compliance": false, "needs_dealer_insights": false, "vin": "z94c251bblr102931", "reasoning": "дни в ремонте"}`)
	if !c.NeedsRepairDays || c.NeedsCompliance || c.NeedsDealerInsights {
		t.Fatalf("flags = %+v", c)
	}
	if c.VIN != "Z94C251BBLR102931" {
		t.Fatalf("vin = %q, must be normalized", c.VIN)
	}
	if c.Reasoning != "дни в ремонте" {
		t.Fatalf("reasoning = %q", c.Reasoning)
	}
}

func TestParseClassificationStripsFences(t *testing.T) {
	t.Parallel()

	response := "```json\n{\"needs_repair_days\": true, \"needs_compliance\": true, \"needs_dealer_insights\": false}\n```"
	c := ParseClassification(response)
	if !c.NeedsRepairDays || !c.NeedsCompliance {
		t.Fatalf("flags = %+v", c)
	}
}

func TestParseClassificationEmbeddedObject(t *testing.T) {
	t.Parallel()

	response := `Вот результат классификации: {"needs_repair_days": false, "needs_compliance": true, "needs_dealer_insights": false, "reasoning": "вопрос о {политике}"} — готово.`
	c := ParseClassification(response)
	if !c.NeedsCompliance || c.NeedsRepairDays {
		t.Fatalf("flags = %+v", c)
	}
}

func TestParseClassificationCoercesLooseBooleans(t *testing.T) {
	t.Parallel()

	c := ParseClassification(`{"needs_repair_days": "true", "needs_compliance": 1, "needs_dealer_insights": "false"}`)
	if !c.NeedsRepairDays {
		t.Fatal("string true must coerce")
	}
	if !c.NeedsCompliance {
		t.Fatal("nonzero number must coerce")
	}
	if c.NeedsDealerInsights {
		t.Fatal("string false must stay false")
	}
}

func TestParseClassificationKeywordFallback(t *testing.T) {
	t.Parallel()

	c := ParseClassification("запрос касается лимита дней простоя")
	if !c.NeedsRepairDays {
		t.Fatal("expected repair days flag from keywords")
	}
	if c.Reasoning != "Классификация на основе ключевых слов" {
		t.Fatalf("reasoning = %q", c.Reasoning)
	}
}

func TestParseClassificationDealerRequiresVIN(t *testing.T) {
	t.Parallel()

	withoutVIN := ParseClassification("покажи ремонты автомобиля")
	if withoutVIN.NeedsDealerInsights {
		t.Fatal("dealer flag must not fire without a VIN")
	}

	withVIN := ParseClassification("покажи ремонты Z94C251BBLR102931")
	if !withVIN.NeedsDealerInsights {
		t.Fatal("dealer flag must fire with a VIN and dealer keywords")
	}
	if withVIN.VIN != "Z94C251BBLR102931" {
		t.Fatalf("vin = %q", withVIN.VIN)
	}
}

func TestParseClassificationNothingMatches(t *testing.T) {
	t.Parallel()

	c := ParseClassification("привет")
	if c.NeedsRepairDays || c.NeedsCompliance || c.NeedsDealerInsights {
		t.Fatalf("flags = %+v", c)
	}
}

func TestFirstJSONObject(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"nested", `x {"a": {"b": 2}} y`, `{"a": {"b": 2}}`},
		{"brace in string", `{"a": "}"}`, `{"a": "}"}`},
		{"unbalanced", `{"a": 1`, ""},
		{"none", "no json here", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := firstJSONObject(tc.input); got != tc.want {
				t.Fatalf("firstJSONObject(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
