// Package main is the entry point for the scrcpy-gui daemon.
//
// The daemon discovers Android devices through adb, connects and pairs over
// the network, launches scrcpy mirroring sessions and serves the whole
// workflow to a UI over HTTP and a WebSocket stream.
//
//	UI → HTTP/WebSocket → daemon → adb / scrcpy
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for local use
//
// Usage:
//
//	./server -port 8765 -bin-dir /opt/scrcpy
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown; running sessions are terminated
package main
