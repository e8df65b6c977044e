// Package app wires the reconciliation service together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, YAML, .env, BORSA_* environment)
//	2. Initialize slog logging and OpenTelemetry providers
//	3. Create the metrics instruments and the reconciliation engine
//	4. Create the run and health services
//	5. Set up the chi router, middleware and handlers
//	6. Configure the HTTP server
//
// # Usage
//
//	a, err := app.NewApplication("")
//	if err != nil {
//	    return err
//	}
//	return a.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns after SIGINT, SIGTERM or cancellation of its context. In-flight
// requests are drained within the configured shutdown timeout, then trace and
// metric providers are flushed. Cached runs are dropped with the process.
//
// The package never calls os.Exit; errors are returned to main.
package app
