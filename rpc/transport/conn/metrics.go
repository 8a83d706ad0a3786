package conn

import (
	"github.com/VictoriaMetrics/metrics"
)

// process wide transport metrics, exported with metrics.WritePrometheus
var (
	connectionsOpened = metrics.NewCounter("dgrid_transport_connections_opened_total")
	connectionsClosed = metrics.NewCounter("dgrid_transport_connections_closed_total")
	framesRead        = metrics.NewCounter("dgrid_transport_frames_read_total")
	framesWritten     = metrics.NewCounter("dgrid_transport_frames_written_total")
	bytesRead         = metrics.NewCounter("dgrid_transport_bytes_read_total")
	bytesWritten      = metrics.NewCounter("dgrid_transport_bytes_written_total")
	pendingCalls      = metrics.NewCounter("dgrid_transport_pending_calls")
	unmatchedFrames   = metrics.NewCounter("dgrid_transport_unmatched_frames_total")
	eventsDispatched  = metrics.NewCounter("dgrid_transport_events_dispatched_total")
	handlerPanics     = metrics.NewCounter("dgrid_transport_handler_panics_total")
	frameSizeRead     = metrics.NewHistogram("dgrid_transport_frame_size_read_bytes")
	frameSizeWritten  = metrics.NewHistogram("dgrid_transport_frame_size_written_bytes")
)
