// Package server wires configuration into a running HTTP service.
//
// Server Lifecycle:
//  1. Load configuration from the environment
//  2. Initialize logger and metrics
//  3. Open the database pool and run migrations (circuit-breaker guarded)
//  4. Build the scoring client with its own breaker
//  5. Setup HTTP routes and middleware (CORS, rate limiting, metrics)
//  6. Start the HTTP server
//  7. Graceful shutdown on signal
package server
