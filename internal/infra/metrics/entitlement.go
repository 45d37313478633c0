package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		entitlementFlagWritesTotal,
		grantSweepRunsTotal,
		grantSweepUsers,
	)
}

var (
	entitlementFlagWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_entitlement_flag_writes_total",
			Help: "Writes of the cached member flag, labeled by the value written.",
		},
		[]string{"is_member"},
	)

	grantSweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_grant_sweep_runs_total",
			Help: "Grant-expiry sweeper runs by result.",
		},
		[]string{"result"},
	)

	grantSweepUsers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "membership_grant_sweep_users_total",
			Help: "Users whose member flag was recomputed by the grant-expiry sweeper.",
		},
	)
)

func IncFlagWrite(isMember bool) {
	entitlementFlagWritesTotal.WithLabelValues(strconv.FormatBool(isMember)).Inc()
}

func IncGrantSweep(result string, users int) {
	grantSweepRunsTotal.WithLabelValues(norm(result)).Inc()
	grantSweepUsers.Add(float64(users))
}
