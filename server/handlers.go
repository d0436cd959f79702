package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/avtoassist/warranty-agent/agent/orchestrator"
	statex "github.com/avtoassist/warranty-agent/agent/state"
)

// QueryRunner runs one warranty query end to end.
type QueryRunner interface {
	Run(ctx context.Context, req orchestrator.Request) *statex.QueryContext
}

// HealthProber reports collaborator health for the health endpoint.
type HealthProber interface {
	MCPStatus(ctx context.Context) string
	LLMStatus(ctx context.Context) string
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	log.Info().Str("query", req.Query).Str("vin", req.VIN).Msg("query received")

	started := time.Now()
	st := s.runner.Run(c.Request.Context(), orchestrator.Request{
		Query:   req.Query,
		VIN:     req.VIN,
		Context: req.Context,
	})
	queryDuration.Observe(time.Since(started).Seconds())

	response := queryResponseFrom(st)
	queriesTotal.WithLabelValues(outcomeLabel(response.Success)).Inc()
	for _, result := range st.AllResults() {
		analysisRuns.WithLabelValues(result.AgentName, outcomeLabel(result.Success)).Inc()
	}

	log.Info().
		Bool("success", response.Success).
		Float64("execution_time", response.ExecutionTimeSeconds).
		Msg("query completed")

	c.JSON(http.StatusOK, response)
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()

	mcpStatus := "unknown"
	llmStatus := "unknown"
	if s.prober != nil {
		mcpStatus = s.prober.MCPStatus(ctx)
		llmStatus = s.prober.LLMStatus(ctx)
	}

	c.JSON(http.StatusOK, HealthCheckResponse{
		Status:          "healthy",
		Version:         s.version,
		Timestamp:       time.Now().UTC(),
		MCPServerStatus: mcpStatus,
		LLMStatus:       llmStatus,
	})
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "warranty-agent",
		"version": s.version,
		"endpoints": gin.H{
			"query":   "POST /agent/query",
			"health":  "GET /health",
			"metrics": "GET /metrics",
		},
	})
}
