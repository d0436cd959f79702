package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	nodex "github.com/avtoassist/warranty-agent/agent/nodes"
	statex "github.com/avtoassist/warranty-agent/agent/state"
)

const stepInit = "init"

const (
	stepClassifier     = contractx.StepClassifier
	stepRepairDays     = contractx.StepRepairDays
	stepCompliance     = contractx.StepCompliance
	stepDealerInsights = contractx.StepDealerInsights
	stepReport         = contractx.StepReport
	stepAggregator     = contractx.StepAggregator
)

// analysisTargets is the target set of a routing branch. A branch leaving an
// analysis node excludes that node: a completed step is never re-entered, so
// the router cannot return it.
func analysisTargets(exclude string) map[string]bool {
	targets := map[string]bool{
		stepRepairDays:     true,
		stepCompliance:     true,
		stepDealerInsights: true,
		stepReport:         true,
	}
	delete(targets, exclude)
	return targets
}

func (e *Engine) compileQueryGraph(ctx context.Context) (compose.Runnable[Request, *statex.QueryContext], error) {
	graph := compose.NewGraph[Request, *statex.QueryContext]()

	if err := graph.AddLambdaNode(stepInit,
		compose.InvokableLambda(func(ctx context.Context, req Request) (*statex.QueryContext, error) {
			return statex.NewAt(req.Query, req.VIN, req.Context, e.now()), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stepInit, err)
	}

	if err := graph.AddLambdaNode(stepClassifier,
		e.step(stepClassifier, func(ctx context.Context, st *statex.QueryContext) *statex.QueryContext {
			return nodex.Classify(ctx, st, e.models.Classifier(), e.prompts.Classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stepClassifier, err)
	}

	if err := graph.AddLambdaNode(stepRepairDays,
		e.step(stepRepairDays, func(ctx context.Context, st *statex.QueryContext) *statex.QueryContext {
			return nodex.RepairDays(ctx, st, e.models.RepairDays(), e.data, e.prompts.RepairDays)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stepRepairDays, err)
	}

	if err := graph.AddLambdaNode(stepCompliance,
		e.step(stepCompliance, func(ctx context.Context, st *statex.QueryContext) *statex.QueryContext {
			return nodex.Compliance(ctx, st, e.models.Compliance(), e.data, e.prompts.Compliance, nodex.ComplianceOptions{
				Summarize: e.cfg.SummarizeCompliance,
			})
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stepCompliance, err)
	}

	if err := graph.AddLambdaNode(stepDealerInsights,
		e.step(stepDealerInsights, func(ctx context.Context, st *statex.QueryContext) *statex.QueryContext {
			return nodex.DealerInsights(ctx, st, e.models.DealerInsights(), e.data, e.prompts.DealerInsights)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stepDealerInsights, err)
	}

	if err := graph.AddLambdaNode(stepReport,
		e.step(stepReport, func(ctx context.Context, st *statex.QueryContext) *statex.QueryContext {
			return nodex.Report(ctx, st, e.models.Report(), e.prompts.ReportSummary, e.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stepReport, err)
	}

	if err := graph.AddLambdaNode(stepAggregator,
		e.step(stepAggregator, func(ctx context.Context, st *statex.QueryContext) *statex.QueryContext {
			return nodex.Aggregate(st, e.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", stepAggregator, err)
	}

	route := func(ctx context.Context, st *statex.QueryContext) (string, error) {
		return nextAnalysisStep(st), nil
	}

	if err := graph.AddBranch(stepClassifier, compose.NewGraphBranch(
		func(ctx context.Context, st *statex.QueryContext) (string, error) {
			return routeAfterClassifier(st), nil
		},
		analysisTargets(""),
	)); err != nil {
		return nil, fmt.Errorf("add branch after %s: %w", stepClassifier, err)
	}
	for _, step := range []string{stepRepairDays, stepCompliance, stepDealerInsights} {
		if err := graph.AddBranch(step, compose.NewGraphBranch(route, analysisTargets(step))); err != nil {
			return nil, fmt.Errorf("add branch after %s: %w", step, err)
		}
	}

	edges := [][2]string{
		{compose.START, stepInit},
		{stepInit, stepClassifier},
		{stepReport, stepAggregator},
		{stepAggregator, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx,
		compose.WithGraphName("warranty.query_graph"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
	if err != nil {
		return nil, fmt.Errorf("compile query graph: %w", err)
	}
	return runner, nil
}

// step wraps a node so a panic inside it degrades into a recorded error
// instead of killing the run.
func (e *Engine) step(name string, fn func(context.Context, *statex.QueryContext) *statex.QueryContext) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, st *statex.QueryContext) (out *statex.QueryContext, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("step", name).Any("panic", r).Msg("step panicked")
				st.AddError(fmt.Sprintf("Ошибка шага %s: %v", name, r))
				st.MarkStepCompleted(name)
				out = st
			}
		}()
		return fn(ctx, st), nil
	})
}
