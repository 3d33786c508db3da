package store

// Persisted keys. Names are part of the storage contract.
const (
	KeyCart             = "ndi_cart"
	KeyWishlist         = "ndi_wishlist"
	KeySaved            = "ndi_saved"
	KeyCoupon           = "ndi_coupon"
	KeyUsers            = "ndi_users"
	KeySession          = "ndi_session"
	KeyReviews          = "ndi_reviews"
	KeyCatalogFilters   = "ndi_catalog_filters"
	KeyLastOrderTotal   = "ndi_last_order_total"
	KeyThemeMode        = "ndi-mode"
	KeyProductsOverride = "ndi_products_override"
	KeyEvents           = "ndi_events"
)
