package nodes

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	vinx "github.com/avtoassist/warranty-agent/pkg/vin"
)

// Keyword tables for the rule-based fallback. Matching is substring-based
// over the lower-cased model response.
var (
	repairDaysKeywords = []string{
		"дней", "простой", "лимит", "30", "repair_days",
	}
	complianceKeywords = []string{
		"закон", "право", "гарантия", "политика", "compliance",
		"контакт", "телефон", "email", "связь", "позвонить",
		"написать", "служба", "процедур", "документ", "стандарт",
		"что делать", "повторн", "процедура",
	}
	dealerKeywords = []string{
		"история обслуживания", "история ремонт", "покажи ремонт",
		"какие ремонты были", "dealer",
	}
)

// ParseClassification turns a raw model response into a Classification.
// It first tries strict JSON (with markdown fences stripped and the first
// balanced object extracted), then falls back to keyword rules. It never
// fails: a response matching nothing yields an all-false classification.
func ParseClassification(response string) *contractx.Classification {
	if c, ok := parseClassificationJSON(response); ok {
		return c
	}
	log.Warn().Msg("classifier response is not valid json, using keyword fallback")
	return classifyByKeywords(response)
}

func parseClassificationJSON(response string) (*contractx.Classification, bool) {
	cleaned := stripFences(response)

	candidate := firstJSONObject(cleaned)
	if candidate == "" {
		candidate = cleaned
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(candidate), &data); err != nil {
		return nil, false
	}

	c := &contractx.Classification{
		NeedsRepairDays:     asBool(data["needs_repair_days"]),
		NeedsCompliance:     asBool(data["needs_compliance"]),
		NeedsDealerInsights: asBool(data["needs_dealer_insights"]),
	}
	if vin, ok := data["vin"].(string); ok {
		c.VIN = vinx.Normalize(vin)
	}
	if reasoning, ok := data["reasoning"].(string); ok {
		c.Reasoning = reasoning
	}
	return c, true
}

func classifyByKeywords(response string) *contractx.Classification {
	lower := strings.ToLower(response)
	vin := vinx.Extract(response)

	return &contractx.Classification{
		NeedsRepairDays: containsAny(lower, repairDaysKeywords),
		NeedsCompliance: containsAny(lower, complianceKeywords),
		// Dealer history only makes sense for a concrete vehicle.
		NeedsDealerInsights: vin != "" && containsAny(lower, dealerKeywords),
		VIN:                 vin,
		Reasoning:           "Классификация на основе ключевых слов",
	}
}

func stripFences(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// firstJSONObject returns the first balanced {...} block, or "". Braces
// inside string literals are ignored.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// asBool coerces the loose truth values models produce: booleans, "true" and
// "false" strings, and numbers where nonzero means true.
func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	case float64:
		return t != 0
	default:
		return false
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
