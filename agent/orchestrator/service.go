// Package orchestrator compiles and runs the warranty query graph: classify,
// run the requested analyses in priority order, build the report, aggregate.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	promptx "github.com/avtoassist/warranty-agent/agent/prompt"
	statex "github.com/avtoassist/warranty-agent/agent/state"
)

// Request is one warranty query to process.
type Request struct {
	Query   string
	VIN     string
	Context map[string]any
}

type Config struct {
	// SummarizeCompliance sends retrieved policy excerpts through the model
	// instead of returning them verbatim.
	SummarizeCompliance bool
}

// Engine runs warranty queries. Safe for concurrent use once built.
type Engine struct {
	models  contractx.Models
	data    contractx.WarrantyData
	cfg     Config
	prompts promptx.PromptSet

	runner compose.Runnable[Request, *statex.QueryContext]

	now func() time.Time
}

func New(models contractx.Models, data contractx.WarrantyData, cfg Config) (*Engine, error) {
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if data == nil {
		return nil, errors.New("warranty data source is required")
	}

	e := &Engine{
		models:  models,
		data:    data,
		cfg:     cfg,
		prompts: promptx.LoadPromptSet(),
		now:     time.Now,
	}

	runner, err := e.compileQueryGraph(context.Background())
	if err != nil {
		return nil, err
	}
	e.runner = runner

	return e, nil
}

// Run processes one query end to end. It never fails: every step failure is
// absorbed into the returned context, and even a broken graph run yields a
// degraded context with an apology response.
func (e *Engine) Run(ctx context.Context, req Request) *statex.QueryContext {
	out, err := e.runner.Invoke(ctx, req)
	if err == nil {
		return out
	}

	log.Error().Err(err).Msg("query graph run failed")

	st := statex.NewAt(req.Query, req.VIN, req.Context, e.now())
	st.AddError(fmt.Sprintf("Ошибка выполнения графа: %v", err))
	st.FinalResponse = fmt.Sprintf("Извините, произошла ошибка при обработке запроса: %v", err)
	st.EndedAt = e.now().UTC()
	return st
}
