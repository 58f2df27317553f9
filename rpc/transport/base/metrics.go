package base

import (
	"github.com/VictoriaMetrics/metrics"
)

// Client side metrics, exported in the prometheus text format via metrics.WritePrometheus
var (
	requestsTotal      = metrics.NewCounter(`keyz_client_requests_total`)
	requestErrorsTotal = metrics.NewCounter(`keyz_client_request_errors_total`)
	requestDuration    = metrics.NewHistogram(`keyz_client_request_duration_seconds`)
	lockWaitDuration   = metrics.NewHistogram(`keyz_client_lock_wait_seconds`)
	bytesWrittenTotal  = metrics.NewCounter(`keyz_client_frame_bytes_written_total`)
	bytesReadTotal     = metrics.NewCounter(`keyz_client_frame_bytes_read_total`)
	brokenTotal        = metrics.NewCounter(`keyz_client_connections_broken_total`)
)
