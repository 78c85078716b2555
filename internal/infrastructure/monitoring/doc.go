/*
Package monitoring provides Prometheus metrics for the daemon.

# Overview

Each Metrics value owns a private registry, so tests and embedded uses can
build as many as they like without duplicate-registration panics. Metrics
cover HTTP traffic, device refreshes, connect and pair attempts, running
sessions, collaborator invocations and WebSocket clients.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(monitoring.Handler(metrics)))

	timer := monitoring.NewTimer(metrics, "adb_connect")
	// ... invoke the collaborator ...
	timer.Stop("success")
*/
package monitoring
