/*
Package monitoring provides Prometheus metrics for the host bridge.

# Overview

Metrics cover bridge invocations (latency, status, error kinds), event
delivery (delivered, dropped, live subscriptions) and the dev host's HTTP
and WebSocket surface. A nil *Metrics is accepted everywhere and records
nothing, so library users that do not care about metrics pass nothing.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "plugin:window|setTitle")
	// ... perform invocation ...
	timer.Stop("success")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
