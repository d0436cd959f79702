package server

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	statex "github.com/avtoassist/warranty-agent/agent/state"
	vinx "github.com/avtoassist/warranty-agent/pkg/vin"
)

const (
	minQueryLen = 3
	maxQueryLen = 1000
)

// QueryRequest is the inbound body of POST /agent/query.
type QueryRequest struct {
	Query   string         `json:"query"`
	VIN     string         `json:"vin,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// Validate normalizes the request in place and reports the first problem.
func (r *QueryRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	length := utf8.RuneCountInString(r.Query)
	if length < minQueryLen {
		return fmt.Errorf("query must be at least %d characters", minQueryLen)
	}
	if length > maxQueryLen {
		return fmt.Errorf("query must be at most %d characters", maxQueryLen)
	}

	if strings.TrimSpace(r.VIN) != "" {
		r.VIN = vinx.Normalize(r.VIN)
		if err := vinx.Validate(r.VIN); err != nil {
			return err
		}
	} else {
		r.VIN = ""
	}
	return nil
}

// AgentResultResponse mirrors one analysis result on the wire.
type AgentResultResponse struct {
	AgentName string         `json:"agent_name"`
	Success   bool           `json:"success"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// QueryResponse is the outbound body of POST /agent/query.
type QueryResponse struct {
	Success              bool                  `json:"success"`
	Query                string                `json:"query"`
	VIN                  string                `json:"vin,omitempty"`
	Response             string                `json:"response"`
	AgentsUsed           []string              `json:"agents_used"`
	AgentResults         []AgentResultResponse `json:"agent_results"`
	ExecutionTimeSeconds float64               `json:"execution_time_seconds"`
	StepsCompleted       []string              `json:"steps_completed"`
	Errors               []string              `json:"errors,omitempty"`
	StartTime            time.Time             `json:"start_time"`
	EndTime              time.Time             `json:"end_time"`
}

// HealthCheckResponse is the body of GET /health.
type HealthCheckResponse struct {
	Status          string    `json:"status"`
	Version         string    `json:"version"`
	Timestamp       time.Time `json:"timestamp"`
	MCPServerStatus string    `json:"mcp_server_status"`
	LLMStatus       string    `json:"llm_status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// queryResponseFrom flattens a finished run into the wire shape.
func queryResponseFrom(st *statex.QueryContext) QueryResponse {
	// A run counts as successful only when no step recorded an error and
	// every analysis that ran produced a result. Precondition failures
	// (missing VIN) live on the result, not in Errors.
	success := !st.HasErrors()
	results := make([]AgentResultResponse, 0, 3)
	for _, result := range st.AllResults() {
		if !result.Success {
			success = false
		}
		results = append(results, AgentResultResponse{
			AgentName: result.AgentName,
			Success:   result.Success,
			Data:      result.Data,
			Error:     result.Error,
			Timestamp: result.Timestamp,
		})
	}

	response := st.FinalResponse
	if response == "" {
		response = "Ответ не сгенерирован"
	}

	return QueryResponse{
		Success:              success,
		Query:                st.Query,
		VIN:                  st.VIN,
		Response:             response,
		AgentsUsed:           agentsUsed(st),
		AgentResults:         results,
		ExecutionTimeSeconds: st.ExecutionTime().Seconds(),
		StepsCompleted:       st.CompletedSteps,
		Errors:               st.Errors,
		StartTime:            st.StartedAt,
		EndTime:              st.EndedAt,
	}
}

func agentsUsed(st *statex.QueryContext) []string {
	if used, ok := st.Metadata["agents_used"].([]string); ok && used != nil {
		return used
	}
	used := []string{}
	for _, result := range st.AllResults() {
		if result.Success {
			used = append(used, result.AgentName)
		}
	}
	return used
}
