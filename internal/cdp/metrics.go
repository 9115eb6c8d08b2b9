package cdp

import "github.com/VictoriaMetrics/metrics"

// Engine counters, exposed through the default VictoriaMetrics registry.
var (
	commandsSent      = metrics.NewCounter("cdpconn_commands_sent_total")
	repliesMatched    = metrics.NewCounter("cdpconn_replies_matched_total")
	repliesUnmatched  = metrics.NewCounter("cdpconn_replies_unmatched_total")
	eventsDispatched  = metrics.NewCounter("cdpconn_events_dispatched_total")
	eventsDropped     = metrics.NewCounter("cdpconn_events_dropped_total")
	commandTimeouts   = metrics.NewCounter("cdpconn_command_timeouts_total")
	malformedFrames   = metrics.NewCounter("cdpconn_malformed_frames_total")
	reconnectAttempts = metrics.NewCounter("cdpconn_reconnect_attempts_total")
)
