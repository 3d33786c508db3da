package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartAddsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_adds_total",
		Help: "Total number of add-to-cart operations",
	})

	WishlistAddsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_wishlist_adds_total",
		Help: "Total number of add-to-wishlist operations",
	})

	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_registrations_total",
		Help: "Total number of registered accounts",
	})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_logins_total",
		Help: "Total number of login attempts",
	}, []string{"result"})

	OrdersPlacedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Total number of orders placed",
	}, []string{"method"})

	OrderValue = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_order_value",
		Help:    "Order totals in catalog currency",
		Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500},
	})

	ReviewsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_reviews_submitted_total",
		Help: "Total number of reviews submitted for moderation",
	})

	ReviewsApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_reviews_approved_total",
		Help: "Total number of reviews approved",
	})

	AnalyticsPublishFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_analytics_publish_failed_total",
		Help: "Total number of analytics events that could not be published",
	})

	BlogFetchFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_blog_fetch_failed_total",
		Help: "Total number of failed blog feed fetches",
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
