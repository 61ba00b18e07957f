// Package app wires the KPI analyzer server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, an optional YAML file and the environment
//  2. Initialize logging and OpenTelemetry
//  3. Create the catalog store and the websocket hub subscribed to it
//  4. Initialize the ingest, import, analytics and health services
//  5. Build the chi router and the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then stops accepting requests, closes
// websocket clients and flushes telemetry within the configured shutdown
// timeout. The package never calls os.Exit.
package app
