package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all the metric instruments for the site backend
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
	// uploads
	UploadsTotal         metric.Int64Counter
	UploadRejectsTotal   metric.Int64Counter
	UploadBytesTotal     metric.Int64Counter
	VariantsEncodedTotal metric.Int64Counter
	// limiter
	RateLimitHitsTotal metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests: %w", err)
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP request latency in ms"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration: %w", err)
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests: %w", err)
	}

	uploadsTotal, err := meter.Int64Counter(
		"uploads",
		metric.WithDescription("Total number of accepted image uploads"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create uploads: %w", err)
	}

	uploadRejectsTotal, err := meter.Int64Counter(
		"upload_rejects",
		metric.WithDescription("Total number of uploads rejected by validation"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload_rejects: %w", err)
	}

	uploadBytesTotal, err := meter.Int64Counter(
		"upload_bytes",
		metric.WithDescription("Total bytes of accepted uploads"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload_bytes: %w", err)
	}

	variantsEncodedTotal, err := meter.Int64Counter(
		"variants_encoded",
		metric.WithDescription("Total number of webp variants encoded"),
		metric.WithUnit("{variant}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create variants_encoded: %w", err)
	}

	rateLimitHitsTotal, err := meter.Int64Counter(
		"rate_limit_hits",
		metric.WithDescription("Number of rate limiter blocked requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate_limit_hits: %w", err)
	}

	return &Metrics{
		HTTPRequestsTotal:    httpRequestsTotal,
		HTTPRequestDuration:  httpRequestDuration,
		HTTPActiveRequests:   httpActiveRequests,
		UploadsTotal:         uploadsTotal,
		UploadRejectsTotal:   uploadRejectsTotal,
		UploadBytesTotal:     uploadBytesTotal,
		VariantsEncodedTotal: variantsEncodedTotal,
		RateLimitHitsTotal:   rateLimitHitsTotal,
	}, nil
}
