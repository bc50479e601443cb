// Package telemetry provides InfluxDB state-history recording for the
// robovac bridge.
//
// It wraps the official influxdb-client-go v2 library with connection
// management and non-blocking batched writes, and exposes a session
// observer that records each device's normalized state whenever it
// changes.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Vacuum activity, battery and clean-speed history
//   - Active error codes over time
//   - Connection lifecycle events
//
// # Usage
//
//	cfg := config.TelemetryConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "home",
//	    Bucket:  "robovac",
//	}
//
//	client, err := telemetry.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	session.AddObserver(client.SessionObserver(session))
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package telemetry
