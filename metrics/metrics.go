package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	// ReviewMutations counts review upserts and removals by outcome.
	ReviewMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_review_mutations_total",
		Help: "Review mutations by operation and result",
	}, []string{"operation", "result"})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_registrations_total",
		Help: "Registration attempts by result",
	}, []string{"result"})

	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_sessions_swept_total",
		Help: "Expired sessions removed by the sweeper",
	})
)
