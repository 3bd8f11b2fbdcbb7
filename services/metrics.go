package services

import "github.com/prometheus/client_golang/prometheus"

var (
	starsAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stars_awarded_total",
			Help: "Total stars awarded, labeled by action name",
		},
		[]string{"action"},
	)
	achievementsGranted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_granted_total",
			Help: "Total achievements newly granted",
		},
		[]string{"achievement"},
	)
	challengeCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_completions_total",
			Help: "Total challenge completions, labeled by challenge kind",
		},
		[]string{"kind"},
	)
)

// InitMetrics registers the engine metrics. Call this from main.go
func InitMetrics() {
	prometheus.MustRegister(starsAwarded)
	prometheus.MustRegister(achievementsGranted)
	prometheus.MustRegister(challengeCompletions)
}
