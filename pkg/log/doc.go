/*
Package log provides structured logging for the detection core using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component & Call Loggers             │          │
	│  │  - WithComponent("detect")                  │          │
	│  │  - WithFlow(logger, dir)                    │          │
	│  │  - WithSignature(logger, sid)                │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "warn",                         │          │
	│  │    "component": "detect",                   │          │
	│  │    "sid": 1000042,                           │          │
	│  │    "dir": "to_server",                       │          │
	│  │    "message": "engine callback failed"       │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  10:30AM WRN engine callback failed component=detect sid=1000042 dir=to_server │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all packages of this module
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add a component name to all logs from a subsystem
  - WithFlow: Annotate a logger with the direction of traffic being
    inspected (pkg/detect's start/continue drivers use this on every call)
  - WithSignature: Annotate a logger with the id of the signature
    currently being evaluated

# Usage

Initializing the Logger:

	import "github.com/cuemby/vigil/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development, cmd/detectreplay's default)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("replay started")
	log.Debug("parsing pcap header")
	log.Warn("engine callback returned an error")
	log.Error("failed to open pcap file")
	log.Fatal("set_tx_detect_state failed while supported") // exits process

Component Loggers:

	// pkg/detect.NewDriver builds one of these once and keeps it on the Driver
	detectLog := log.WithComponent("detect")
	detectLog.Info().Msg("driver constructed")

Per-Call Context Loggers:

	// StartDetection/ContinueDetection annotate the component logger with
	// the signature and direction being inspected on every call
	logger := log.WithFlow(log.WithSignature(detectLog, uint32(sig.ID)), dir.String())
	logger.Warn().Err(err).Msg("engine callback failed, aborting packet inspection for flow")

Complete Example:

	package main

	import (
		"os"

		"github.com/cuemby/vigil/pkg/log"
	)

	func main() {
		log.Init(log.Config{
			Level:      log.InfoLevel,
			JSONOutput: true,
			Output:     os.Stdout,
		})

		replayLog := log.WithComponent("detectreplay")
		replayLog.Info().Str("rules", "demo.yaml").Msg("loaded signature set")
	}

# Integration Points

This package integrates with:

  - pkg/detect: component logger built once per Driver, per-call loggers
    annotated with WithFlow/WithSignature on every StartDetection/
    ContinueDetection call
  - cmd/detectreplay: component logger for the replay CLI itself,
    initialized from the --log-level/--log-json flags

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Int, .Err)
  - Enables log aggregation and querying
  - Better than string concatenation
  - Parseable by log analysis tools

Error Logging Pattern:
  - Always use .Err(err) for error objects
  - Consistent error format across the codebase

# Performance Characteristics

Logging Overhead:
  - Disabled level: 0ns (compile-time optimization)
  - JSON encode: ~500ns per log line
  - Console format: ~1µs per log line

Log Level Impact:
  - Debug: High volume, use in development only
  - Info: Moderate volume, suitable for production
  - Warn/Error: Low volume, minimal impact

# Troubleshooting

No Log Output:
  - Check: log.Init() called before logging
  - Check: Log level set appropriately (Debug < Info < Warn < Error)

Missing Context Fields:
  - Cause: Using the global Logger instead of a component/call logger
  - Solution: Use WithComponent/WithFlow/WithSignature

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - Structured logging: https://www.thoughtworks.com/radar/techniques/structured-logging
*/
package log
