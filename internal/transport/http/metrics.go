package httptransport

import "expvar"

var (
	metricSessionOpenTotal  = expvar.NewInt("session_open_total")
	metricSessionOpenErrors = expvar.NewInt("session_open_errors_total")

	metricCommandSubmitTotal  = expvar.NewInt("command_submit_total")
	metricCommandSubmitErrors = expvar.NewInt("command_submit_errors_total")

	metricSSEConnectionsTotal  = expvar.NewInt("sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("sse_connections_active")
	metricWSConnectionsTotal   = expvar.NewInt("ws_connections_total")
	metricWSConnectionsActive  = expvar.NewInt("ws_connections_active")
)
