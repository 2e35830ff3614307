// Package metrics exposes prometheus instrumentation for the ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExpensesRecorded counts expenses persisted to the ledger, by split
	// mode ("exact" covers personal expenses).
	ExpensesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_expenses_recorded_total",
		Help: "Expenses persisted to the ledger, by split mode.",
	}, []string{"mode"})

	// AllocationFailures counts split requests rejected before reaching
	// storage.
	AllocationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_allocation_failures_total",
		Help: "Split allocations rejected for invalid input.",
	})

	// SummaryQueries counts aggregation reads.
	SummaryQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_summary_queries_total",
		Help: "Personal expense summary queries served.",
	})
)
