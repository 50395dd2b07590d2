package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	KOTsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kots_created_total",
		Help: "Total number of kitchen order tickets created",
	})

	KOTStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kot_status_changes_total",
		Help: "KOT status transitions by target status",
	}, []string{"status"})

	BillPreviewsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bill_previews_total",
		Help: "Total number of bill previews computed",
	})

	BillItemsSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bill_items_skipped_total",
		Help: "KOT items left off a bill because their product is no longer in the catalog",
	})

	InvalidDiscountsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bill_invalid_discounts_total",
		Help: "Discounts ignored because their type or value was invalid",
	})

	BillsFinalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bills_finalized_total",
		Help: "Total number of finalized bills by payment method",
	}, []string{"payment_method"})

	BillFinalizeDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bill_finalize_duplicates_total",
		Help: "Finalize requests answered from an existing order via idempotency key",
	})

	BillFinalizeFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bill_finalize_failed_total",
		Help: "Failed finalize attempts by reason",
	}, []string{"reason"})

	BillFinalizePartialFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bill_finalize_partial_failures_total",
		Help: "Finalize attempts that left an order and its KOTs out of step",
	}, []string{"stage"})

	BillFinalizeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bill_finalize_latency_seconds",
		Help:    "Latency of bill finalization",
		Buckets: prometheus.DefBuckets,
	})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_deleted_total",
		Help: "Total number of orders deleted with a reason",
	})

	InventoryUsageRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_usage_recorded_total",
		Help: "Total number of inventory usage records",
	})

	LowStockAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_low_stock_alerts_total",
		Help: "Low stock alerts raised by inventory item",
	}, []string{"item"})

	KitchenDisplayClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kitchen_display_clients",
		Help: "Connected kitchen display websocket clients",
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
