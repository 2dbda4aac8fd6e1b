package arena

import "expvar"

var (
	metricSessionsRegistered = expvar.NewInt("sessions_registered_total")
	metricRoomsCreated       = expvar.NewInt("rooms_created_total")
	metricMatchesStarted     = expvar.NewInt("matches_started_total")
	metricMatchesFinished    = expvar.NewInt("matches_finished_total")
	metricRoundsResolved     = expvar.NewInt("rounds_resolved_total")
	metricReconnects         = expvar.NewInt("reconnects_total")
	metricForfeits           = expvar.NewInt("forfeits_total")
	metricKicks              = expvar.NewInt("kicks_total")
)
