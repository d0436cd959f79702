package nodes

import "encoding/json"

// toolError extracts the tool-level failure message from an MCP payload.
func toolError(payload map[string]any) (string, bool) {
	v, ok := payload["error"]
	if !ok {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "unknown error", true
	}
	return string(raw), true
}

// formatPayload renders an MCP payload for a prompt: the pre-formatted
// "result" field when the server provides one, pretty JSON otherwise.
func formatPayload(payload map[string]any) string {
	if text, ok := payload["result"].(string); ok && text != "" {
		return text
	}
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}
