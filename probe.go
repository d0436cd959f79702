package main

import (
	"context"
	"time"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	gigachatx "github.com/avtoassist/warranty-agent/pkg/gigachat"
)

const probeTimeout = 5 * time.Second

// healthProber backs the /health endpoint with live collaborator checks.
type healthProber struct {
	mcp contractx.WarrantyData
	llm *openaisdk.Client
}

func (p *healthProber) MCPStatus(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	payload, err := p.mcp.Health(ctx)
	if err != nil {
		return "unreachable"
	}
	if status, ok := payload["status"].(string); ok {
		return status
	}
	return "unknown"
}

func (p *healthProber) LLMStatus(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := gigachatx.Ping(ctx, p.llm); err != nil {
		return "error"
	}
	return "ready"
}
