package main

import (
	"context"

	"github.com/rs/zerolog/log"

	llmx "github.com/avtoassist/warranty-agent/agent/llm"
	"github.com/avtoassist/warranty-agent/agent/orchestrator"
	configx "github.com/avtoassist/warranty-agent/pkg/config"
	gigachatx "github.com/avtoassist/warranty-agent/pkg/gigachat"
	_ "github.com/avtoassist/warranty-agent/pkg/logger/autoload"
	mcpx "github.com/avtoassist/warranty-agent/pkg/mcp"
	serverx "github.com/avtoassist/warranty-agent/server"
)

type AppConfig struct {
	// SummarizeCompliance passes retrieved policy excerpts through the model
	// before reporting them.
	SummarizeCompliance bool `envconfig:"SUMMARIZE_COMPLIANCE" split_words:"true" default:"true"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("AGENT")

	mcpCfg := configx.MustNew[mcpx.Config]("MCP")
	mcpClient := mcpx.MustNew(*mcpCfg)

	llmCfg := configx.MustNew[llmx.Config]("GIGACHAT")
	models, err := llmx.NewRegistry(ctx, *llmCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model registry")
	}

	engine, err := orchestrator.New(models, mcpClient, orchestrator.Config{
		SummarizeCompliance: appCfg.SummarizeCompliance,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to compile query graph")
	}

	prober := &healthProber{
		mcp: mcpClient,
		llm: gigachatx.NewClient(llmCfg.GigaChatFor(llmx.RoleClassifier)),
	}

	serverCfg := configx.MustNew[serverx.Config]("API")
	srv := serverx.New(engine, prober, *serverCfg)

	log.Info().Int("port", serverCfg.Port).Msg("warranty agent listening")
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
