package http

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "waterq/internal/errors"
	"waterq/internal/exporter"
	"waterq/internal/infrastructure"
	"waterq/internal/middleware"
	"waterq/internal/quality"
	"waterq/internal/services"
	api "waterq/pkg/contracts/api/v1"
	"waterq/pkg/contracts/domain"
)

// Paging bounds for the records endpoint.
const (
	defaultPageSize = 100
	maxPageSize     = 10000
)

// DatasetHandler handles dataset queries with RFC 7807 compliance
type DatasetHandler struct {
	service      DatasetServiceInterface
	validation   *middleware.ValidationMiddleware
	params       *middleware.QueryParamValidator
	csv          *exporter.CSVWriter
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler with RFC 7807 error handling
func NewDatasetHandler(service DatasetServiceInterface, validation *middleware.ValidationMiddleware, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		validation:   validation,
		params:       middleware.NewQueryParamValidator(logger, errorHandler),
		csv:          exporter.NewCSVWriter(logger),
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes with proper Chi patterns
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Use render for consistent JSON responses
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetOverview)
	r.Get("/report", h.GetReport)
	r.Get("/summary", h.GetSummary)
	r.Get("/trends/ph", h.GetPHTrend)
	r.Get("/regions/conductivity", h.GetRegionConductivity)
	r.Get("/compliance", h.GetCompliance)
	r.Get("/map", h.GetMap)
	r.Get("/distribution", h.GetDistribution)

	// The heavier views run in their own trace segments
	r.Get("/records", middleware.DatasetTraceHandler("records", h.GetRecords))
	r.Get("/correlation", middleware.DatasetTraceHandler("correlation", h.GetCorrelation))
	r.Get("/anomalies", middleware.DatasetTraceHandler("anomalies", h.GetAnomalies))
	r.Get("/download", middleware.DatasetTraceHandler("download", h.Download))

	return r
}

// GetOverview handles GET /api/dataset
func (h *DatasetHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   overview,
	})
}

// GetReport handles GET /api/dataset/report
func (h *DatasetHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   report,
	})
}

// GetRecords handles GET /api/dataset/records
func (h *DatasetHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	limit, ok := h.params.ValidateInt(w, r, "limit", 1, maxPageSize, defaultPageSize)
	if !ok {
		return
	}
	offset, ok := h.params.ValidateInt(w, r, "offset", 0, math.MaxInt32, 0)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "fetching dataset records",
		slog.String("request_id", reqID),
		slog.Int("limit", limit),
		slog.Int("offset", offset),
		slog.Any("regions", filter.Regions),
	)

	records, total, err := h.service.Records(r.Context(), filter, api.PageRequest{Limit: limit, Offset: offset})
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
		"total":  total,
		"params": map[string]interface{}{
			"limit":  limit,
			"offset": offset,
		},
	})
}

// GetSummary handles GET /api/dataset/summary
func (h *DatasetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stats,
	})
}

// GetPHTrend handles GET /api/dataset/trends/ph
func (h *DatasetHandler) GetPHTrend(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	points, err := h.service.TrendPH(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err, domain.ColPH)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   points,
		"count":  len(points),
	})
}

// GetRegionConductivity handles GET /api/dataset/regions/conductivity
func (h *DatasetHandler) GetRegionConductivity(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	values, err := h.service.RegionMeans(r.Context(), filter, domain.ColConductivity)
	if err != nil {
		h.handleServiceError(w, r, err, domain.ColConductivity)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   values,
		"count":  len(values),
	})
}

// GetCompliance handles GET /api/dataset/compliance
func (h *DatasetHandler) GetCompliance(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	breakdown, err := h.service.Compliance(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   breakdown,
	})
}

// GetCorrelation handles GET /api/dataset/correlation
func (h *DatasetHandler) GetCorrelation(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	matrix, err := h.service.Correlation(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   matrix,
		"count":  len(matrix.Columns),
	})
}

// GetMap handles GET /api/dataset/map
func (h *DatasetHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	req := api.MapRequest{
		Parameter: r.URL.Query().Get("parameter"),
		Filter:    filter,
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "fetching map points",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("parameter", req.Parameter),
	)

	points, err := h.service.MapPoints(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err, req.Parameter)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   points,
		"count":  len(points),
		"params": map[string]interface{}{
			"parameter": req.Parameter,
		},
	})
}

// GetDistribution handles GET /api/dataset/distribution
func (h *DatasetHandler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	req := api.DistributionRequest{
		Value:  q.Get("value"),
		By:     q.Get("by"),
		Filter: filter,
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "fetching distribution",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("value", req.Value),
		slog.String("by", req.By),
	)

	buckets, err := h.service.Distribution(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err, req.Value)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   buckets,
		"count":  len(buckets),
		"params": map[string]interface{}{
			"value": req.Value,
			"by":    req.By,
		},
	})
}

// GetAnomalies handles GET /api/dataset/anomalies
func (h *DatasetHandler) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}
	threshold, ok := h.params.ValidateFloat(w, r, "threshold", quality.DefaultAnomalyThreshold)
	if !ok {
		return
	}

	req := api.AnomalyRequest{
		Column:    r.URL.Query().Get("column"),
		Threshold: threshold,
		Filter:    filter,
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "screening for anomalies",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("column", req.Column),
		slog.Float64("threshold", req.Threshold),
	)

	result, err := h.service.Anomalies(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err, req.Column)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
		"count":  len(result.Records),
	})
}

// Download handles GET /api/dataset/download, streaming the filtered
// subset as CSV in the artifact format.
func (h *DatasetHandler) Download(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	frame, err := h.service.Filtered(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	h.logger.InfoContext(r.Context(), "streaming dataset download",
		slog.String("request_id", reqID),
		slog.Int("rows", frame.Rows()),
		slog.Any("regions", filter.Regions),
	)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="processed_water_data.csv"`)

	start := time.Now()
	rows, err := h.csv.Write(w, frame, exporter.WriteOptions{})
	metrics := middleware.GetBusinessMetricsFromContext(r.Context())
	infrastructure.RecordArtifactExport(r.Context(), metrics, "csv", time.Since(start), err == nil)
	if err != nil {
		// Headers are already on the wire, so the failure can only be logged.
		h.logger.ErrorContext(r.Context(), "dataset download failed mid-stream",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.Int("rows_written", rows),
		)
	}
}

// GetRegions handles GET /api/regions
func (h *DatasetHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.service.Regions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   regions,
		"count":  len(regions),
	})
}

// parseFilter reads the shared filter query parameters. Bad year values
// are rejected; an inverted year range is allowed and matches nothing.
func (h *DatasetHandler) parseFilter(w http.ResponseWriter, r *http.Request) (api.FilterRequest, bool) {
	q := r.URL.Query()

	var filter api.FilterRequest
	if raw := q.Get("regions"); raw != "" {
		for _, region := range strings.Split(raw, ",") {
			if region = strings.TrimSpace(region); region != "" {
				filter.Regions = append(filter.Regions, region)
			}
		}
	}

	for _, param := range []string{"year_from", "year_to"} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		year, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, "must be a whole year"))
			return api.FilterRequest{}, false
		}
		if param == "year_from" {
			filter.YearFrom = &year
		} else {
			filter.YearTo = &year
		}
	}
	return filter, true
}

// handleServiceError maps dataset service sentinels onto the API error
// vocabulary before delegating to the central handler. column names the
// query column behind column-shaped failures, when the endpoint has one.
func (h *DatasetHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, column string) {
	h.logger.ErrorContext(r.Context(), "dataset request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("path", r.URL.Path),
	)

	switch {
	case errors.Is(err, services.ErrSourceUnavailable):
		h.errorHandler.HandleError(w, r, apierrors.SourceUnavailableError(err))
	case errors.Is(err, services.ErrBuildFailed):
		h.errorHandler.HandleError(w, r, apierrors.BuildFailedError(err))
	case errors.Is(err, services.ErrUnknownColumn):
		if column != "" {
			h.errorHandler.HandleError(w, r, apierrors.UnknownColumnError(column))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusBadRequest, "UNKNOWN_COLUMN", err.Error()))
	case errors.Is(err, services.ErrColumnNotNumeric):
		if column != "" {
			h.errorHandler.HandleError(w, r, apierrors.ColumnNotNumericError(column))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusBadRequest, "COLUMN_NOT_NUMERIC", err.Error()))
	case errors.Is(err, services.ErrUnknownLabel):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("by", "must name a derived label column"))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
