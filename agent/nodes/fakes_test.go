package nodes

import (
	"context"
	"errors"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type fakeChatModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func responses(contents ...string) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(contents))
	for _, content := range contents {
		msgs = append(msgs, &schema.Message{Role: schema.Assistant, Content: content})
	}
	return msgs
}

// fakeWarrantyData returns canned payloads per tool.
type fakeWarrantyData struct {
	warrantyDays       map[string]any
	warrantyDaysErr    error
	warrantyHistory    map[string]any
	warrantyHistoryErr error
	maintenance        map[string]any
	maintenanceErr     error
	repairs            map[string]any
	repairsErr         error
	compliance         map[string]any
	complianceErr      error

	complianceQueries []string
}

func (f *fakeWarrantyData) WarrantyDays(ctx context.Context, vin string) (map[string]any, error) {
	return f.warrantyDays, f.warrantyDaysErr
}

func (f *fakeWarrantyData) WarrantyHistory(ctx context.Context, vin string) (map[string]any, error) {
	return f.warrantyHistory, f.warrantyHistoryErr
}

func (f *fakeWarrantyData) MaintenanceHistory(ctx context.Context, vin string) (map[string]any, error) {
	return f.maintenance, f.maintenanceErr
}

func (f *fakeWarrantyData) VehicleRepairsHistory(ctx context.Context, vin string) (map[string]any, error) {
	return f.repairs, f.repairsErr
}

func (f *fakeWarrantyData) ComplianceSearch(ctx context.Context, query string) (map[string]any, error) {
	f.complianceQueries = append(f.complianceQueries, query)
	return f.compliance, f.complianceErr
}

func (f *fakeWarrantyData) Health(ctx context.Context) (map[string]any, error) {
	return map[string]any{"status": "healthy"}, nil
}
