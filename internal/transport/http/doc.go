// Package http implements the HTTP handlers of the reconciliation service.
// Handlers stay thin: they decode and validate the request, call the run
// service and render JSON, files or RFC 7807 problems.
//
// # Endpoints
//
//	POST /api/reconcile                               multipart upload, starts a run
//	GET  /api/runs/{id}                               run overview
//	GET  /api/runs/{id}/rows?page=&page_size=         reconciled rows
//	GET  /api/runs/{id}/summary?threshold=            institution controls
//	GET  /api/runs/{id}/volume                        volume distribution
//	GET  /api/runs/{id}/export/{table}.{xlsx|csv}     rows, summary or volume
//	GET  /api/health, /api/version, /metrics
//
// The reconcile form takes takas and akd parts (required) and an optional
// hacim part. Each part is a zip archive or one or more xlsx/csv files.
// Optional fields: source_mode, alignment, require_volume, year, month.
//
// Errors are rendered through errors.ErrorHandler so every failure carries
// a problem type, a status and the request's trace id.
package http
