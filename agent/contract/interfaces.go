package contract

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// Models resolves a chat model per agent role. Implementations are expected
// to share clients between roles with identical model/temperature tuples.
type Models interface {
	Classifier() model.BaseChatModel
	RepairDays() model.BaseChatModel
	Compliance() model.BaseChatModel
	DealerInsights() model.BaseChatModel
	Report() model.BaseChatModel
}

// WarrantyData is the data-retrieval collaborator backed by the MCP server.
// Every method returns the decoded tool response; a response carrying the
// well-known "error" key signals a tool-level failure, a Go error signals a
// transport failure. Implementations must be safe for concurrent use.
type WarrantyData interface {
	WarrantyDays(ctx context.Context, vin string) (map[string]any, error)
	WarrantyHistory(ctx context.Context, vin string) (map[string]any, error)
	MaintenanceHistory(ctx context.Context, vin string) (map[string]any, error)
	VehicleRepairsHistory(ctx context.Context, vin string) (map[string]any, error)
	ComplianceSearch(ctx context.Context, query string) (map[string]any, error)
	Health(ctx context.Context) (map[string]any, error)
}
