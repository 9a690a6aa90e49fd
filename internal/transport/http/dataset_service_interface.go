package http

import (
	"context"

	"waterq/internal/dataset"
	api "waterq/pkg/contracts/api/v1"
)

// DatasetServiceInterface defines the dataset operations the handlers
// depend on
type DatasetServiceInterface interface {
	Overview(ctx context.Context) (api.DatasetOverview, error)
	Report(ctx context.Context) (api.BuildReport, error)
	Records(ctx context.Context, filter api.FilterRequest, page api.PageRequest) ([]api.Record, int, error)
	Summary(ctx context.Context, filter api.FilterRequest) (api.SummaryStats, error)
	TrendPH(ctx context.Context, filter api.FilterRequest) ([]api.PHTrendPoint, error)
	RegionMeans(ctx context.Context, filter api.FilterRequest, column string) ([]api.RegionValue, error)
	Compliance(ctx context.Context, filter api.FilterRequest) (api.ComplianceBreakdown, error)
	Correlation(ctx context.Context, filter api.FilterRequest) (api.CorrelationMatrix, error)
	MapPoints(ctx context.Context, req api.MapRequest) ([]api.MapPoint, error)
	Distribution(ctx context.Context, req api.DistributionRequest) ([]api.DistributionBucket, error)
	Anomalies(ctx context.Context, req api.AnomalyRequest) (api.AnomalyResult, error)
	Regions(ctx context.Context) ([]api.RegionInfo, error)

	// Filtered backs the download endpoint, which streams the frame
	// instead of materializing records.
	Filtered(ctx context.Context, filter api.FilterRequest) (*dataset.Frame, error)
}
