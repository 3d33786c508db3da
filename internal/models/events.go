package models

import "time"

// Analytics event types
const (
	EventViewItem      = "view_item"
	EventAddToCart     = "add_to_cart"
	EventAddToWishlist = "add_to_wishlist"
	EventBeginCheckout = "begin_checkout"
	EventPurchase      = "purchase"
)

// Moderation event types
const (
	EventTypeReviewApproved = "REVIEW_APPROVED"
)

// AnalyticsEvent is a tracked storefront interaction
type AnalyticsEvent struct {
	Type      string                 `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"ts"`
}

// BaseEvent contains common fields for all broker events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalyticsEnvelope wraps an analytics event for publishing
type AnalyticsEnvelope struct {
	BaseEvent
	ClientID string         `json:"client_id"`
	Event    AnalyticsEvent `json:"event"`
}

// ReviewApprovedEvent is published by the external moderation tool
type ReviewApprovedEvent struct {
	BaseEvent
	ClientID  string `json:"client_id"`
	ProductID string `json:"product_id"`
	ReviewID  string `json:"review_id"`
}
