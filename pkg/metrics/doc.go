// Package metrics records Prometheus metrics for the upload widget.
//
// A Recorder is created once per process and shared by every widget
// controller and host connection:
//
//	rec := metrics.NewRecorder(
//	    metrics.WithNamespace("myapp"),
//	    metrics.WithRegistry(prometheus.NewRegistry()),
//	)
//
//	ctrl := widget.New(cfg, widget.WithRecorder(rec))
//	http.Handle("/metrics", rec.Handler())
//
// Metrics collected:
//   - fileupload_offers_total: offers by outcome
//   - fileupload_rejections_total: rejected files by reason code
//   - fileupload_encode_duration_seconds: batch encode duration by status
//   - fileupload_files_encoded_total: files encoded successfully
//   - fileupload_bytes_encoded_total: raw bytes encoded successfully
//   - fileupload_active_connections: open websocket connections
//   - fileupload_websocket_errors_total: websocket errors by type
//
// All Recorder methods are safe on a nil *Recorder, so callers never need to
// check whether metrics are enabled.
package metrics
