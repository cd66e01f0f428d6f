package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sessionsStartedTotal,
		sessionsEndedTotal,
		turnsTotal,
		compactionsTotal,
	)
}

var (
	sessionsStartedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_started_total",
			Help: "Interview sessions started.",
		},
	)

	sessionsEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_ended_total",
			Help: "Interview sessions finalized, by reason.",
		},
		[]string{"reason"}, // "ended" | "abandoned"
	)

	turnsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "session_turns_total",
			Help: "User turns processed across all sessions.",
		},
	)

	compactionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "session_compactions_total",
			Help: "Rolling-summary compactions performed.",
		},
	)
)

func IncSessionStarted() { sessionsStartedTotal.Inc() }

func IncSessionEnded(reason string) { sessionsEndedTotal.WithLabelValues(norm(reason)).Inc() }

func IncTurn() { turnsTotal.Inc() }

func IncCompaction() { compactionsTotal.Inc() }
