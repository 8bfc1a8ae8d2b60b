package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ClientsQueuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clients_queued_total",
		Help: "Total number of clients assigned to checkout queues",
	})

	QueueRunsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_runs_failed_total",
		Help: "Total number of queueing runs that failed a precondition",
	}, []string{"reason"})

	SettlementsSucceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_succeeded_total",
		Help: "Total number of successful client settlements",
	})

	SettlementsInsufficientFundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlements_insufficient_funds_total",
		Help: "Total number of settlements rejected for insufficient funds",
	})

	SettlementRunLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_run_latency_seconds",
		Help:    "Latency of whole-shop settlement runs",
		Buckets: prometheus.DefBuckets,
	})

	ReceiptsEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipts_emitted_total",
		Help: "Total number of receipts written to the durable sink",
	})

	ReceiptEmitFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipt_emit_failures_total",
		Help: "Total number of receipt sink write failures",
	})

	AuditEventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_events_processed_total",
		Help: "Total number of settlement events recorded by the audit worker",
	}, []string{"type"})

	AuditEventsDuplicateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_events_duplicate_total",
		Help: "Total number of redelivered events skipped by the audit worker",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
