package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"

	contractx "github.com/avtoassist/warranty-agent/agent/contract"
	gigachatx "github.com/avtoassist/warranty-agent/pkg/gigachat"
)

type registryImpl struct {
	classifier     model.BaseChatModel
	repairDays     model.BaseChatModel
	compliance     model.BaseChatModel
	dealerInsights model.BaseChatModel
	report         model.BaseChatModel
}

func (r *registryImpl) Classifier() model.BaseChatModel     { return r.classifier }
func (r *registryImpl) RepairDays() model.BaseChatModel     { return r.repairDays }
func (r *registryImpl) Compliance() model.BaseChatModel     { return r.compliance }
func (r *registryImpl) DealerInsights() model.BaseChatModel { return r.dealerInsights }
func (r *registryImpl) Report() model.BaseChatModel         { return r.report }

// NewRegistry builds one chat model per role. Roles that resolve to the same
// model and temperature share a single client.
func NewRegistry(ctx context.Context, cfg Config) (contractx.Models, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool := map[string]model.BaseChatModel{}
	build := func(role Role) (model.BaseChatModel, error) {
		mc := cfg.GigaChatFor(role)
		key := poolKey(mc)
		if m, ok := pool[key]; ok {
			return m, nil
		}
		m, err := mc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, role, err)
		}
		pool[key] = m
		return m, nil
	}

	reg := &registryImpl{}
	for _, binding := range []struct {
		role Role
		slot *model.BaseChatModel
	}{
		{RoleClassifier, &reg.classifier},
		{RoleRepairDays, &reg.repairDays},
		{RoleCompliance, &reg.compliance},
		{RoleDealerInsights, &reg.dealerInsights},
		{RoleReport, &reg.report},
	} {
		m, err := build(binding.role)
		if err != nil {
			return nil, err
		}
		*binding.slot = m
	}

	return reg, nil
}

func poolKey(cfg gigachatx.Config) string {
	return fmt.Sprintf("%s|%.3f", cfg.Model, cfg.Temperature)
}
