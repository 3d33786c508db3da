package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/blog"
	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	// ClientIDHeader names the storage namespace of the caller
	ClientIDHeader  = "X-Client-ID"
	defaultClientID = "default"
	storefrontKey   = "storefront"
)

// Opener opens the storefront of one client
type Opener interface {
	Open(ctx context.Context, clientID string) (*service.Storefront, error)
}

// ReadinessCheck reports whether a dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	storefronts Opener
	blog        *blog.Client
	checks      map[string]ReadinessCheck
	logger      *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(storefronts Opener, blogClient *blog.Client) *Handler {
	return &Handler{
		storefronts: storefronts,
		blog:        blogClient,
		checks:      map[string]ReadinessCheck{},
		logger:      util.GetLogger(),
	}
}

// AddReadinessCheck registers a dependency probed by /ready
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/blog", h.getBlog)

	scoped := v1.Group("", h.clientScope())
	{
		scoped.GET("/products", h.listProducts)
		scoped.GET("/products/:id", h.getProduct)
		scoped.GET("/products/:id/reviews", h.listReviews)
		scoped.POST("/products/:id/reviews", h.submitReview)
		scoped.GET("/catalog/facets", h.getFacets)
		scoped.GET("/catalog/last-query", h.getLastQuery)

		scoped.GET("/cart", h.getCart)
		scoped.POST("/cart/items", h.addCartItem)
		scoped.PATCH("/cart/items/:id", h.updateCartItem)
		scoped.DELETE("/cart/items/:id", h.removeCartItem)
		scoped.POST("/cart/items/:id/save", h.saveForLater)
		scoped.PUT("/cart/coupon", h.applyCoupon)
		scoped.POST("/saved/:id/move", h.moveSavedToCart)
		scoped.DELETE("/saved/:id", h.removeSaved)

		scoped.GET("/wishlist", h.getWishlist)
		scoped.POST("/wishlist/:id", h.addWishlistItem)
		scoped.DELETE("/wishlist/:id", h.removeWishlistItem)
		scoped.POST("/wishlist/:id/move", h.moveWishlistToCart)

		scoped.POST("/account/register", h.register)
		scoped.POST("/account/login", h.login)
		scoped.POST("/account/logout", h.logout)
		scoped.POST("/account/reset-password", h.resetPassword)
		scoped.GET("/account", h.getAccount)
		scoped.POST("/account/addresses", h.addAddress)
		scoped.GET("/account/orders", h.listOrders)
		scoped.GET("/account/orders/:id", h.getOrder)

		scoped.GET("/checkout/quote", h.getQuote)
		scoped.POST("/checkout/orders", h.placeOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck probes every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// clientScope opens the caller's storefront for the request
func (h *Handler) clientScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(ClientIDHeader)
		if clientID == "" {
			clientID = defaultClientID
		}
		if !service.ValidClientID(clientID) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Invalid client id",
			})
			return
		}

		sf, err := h.storefronts.Open(c.Request.Context(), clientID)
		if err != nil {
			h.logger.Error("Failed to open storefront",
				zap.String("client_id", clientID),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load client state",
			})
			return
		}

		c.Set(storefrontKey, sf)
		c.Next()
	}
}

func storefront(c *gin.Context) *service.Storefront {
	return c.MustGet(storefrontKey).(*service.Storefront)
}

// respondError maps service error kinds to HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

// listProducts filters the catalog and reveals pages up to ?page
func (h *Handler) listProducts(c *gin.Context) {
	criteria := catalog.ParseCriteria(c.Request.URL.Query())
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}

	result, err := storefront(c).Catalog.Browse(c.Request.Context(), criteria, page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getProduct(c *gin.Context) {
	p, err := storefront(c).Catalog.Product(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) getFacets(c *gin.Context) {
	c.JSON(http.StatusOK, storefront(c).Catalog.Facets())
}

func (h *Handler) getLastQuery(c *gin.Context) {
	q, err := storefront(c).Catalog.LastQuery(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q})
}

func (h *Handler) listReviews(c *gin.Context) {
	summary, err := storefront(c).Reviews.ListApproved(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) submitReview(c *gin.Context) {
	var req service.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	review, err := storefront(c).Reviews.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"review":  review,
		"message": "Review submitted for moderation",
	})
}

// cartMutation runs op and responds with the refreshed cart
func (h *Handler) cartMutation(c *gin.Context, op func(ctx context.Context, sf *service.Storefront) error) {
	sf := storefront(c)
	if err := op(c.Request.Context(), sf); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sf.Cart.Summary())
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, storefront(c).Cart.Summary())
}

type addItemRequest struct {
	ID string `json:"id" binding:"required"`
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.cartMutation(c, func(ctx context.Context, sf *service.Storefront) error {
		return sf.Cart.AddToCart(ctx, req.ID)
	})
}

type updateQtyRequest struct {
	Qty int `json:"qty"`
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.cartMutation(c, func(ctx context.Context, sf *service.Storefront) error {
		return sf.Cart.UpdateQty(ctx, c.Param("id"), req.Qty)
	})
}

func (h *Handler) removeCartItem(c *gin.Context) {
	h.cartMutation(c, func(ctx context.Context, sf *service.Storefront) error {
		return sf.Cart.RemoveFromCart(ctx, c.Param("id"))
	})
}

func (h *Handler) saveForLater(c *gin.Context) {
	h.cartMutation(c, func(ctx context.Context, sf *service.Storefront) error {
		return sf.Cart.SaveForLater(ctx, c.Param("id"))
	})
}

type couponRequest struct {
	Code string `json:"code"`
}

func (h *Handler) applyCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.cartMutation(c, func(ctx context.Context, sf *service.Storefront) error {
		return sf.Cart.ApplyCoupon(ctx, req.Code)
	})
}

func (h *Handler) moveSavedToCart(c *gin.Context) {
	h.cartMutation(c, func(ctx context.Context, sf *service.Storefront) error {
		return sf.Cart.MoveToCart(ctx, c.Param("id"))
	})
}

func (h *Handler) removeSaved(c *gin.Context) {
	h.cartMutation(c, func(ctx context.Context, sf *service.Storefront) error {
		return sf.Cart.RemoveSaved(ctx, c.Param("id"))
	})
}

func (h *Handler) getWishlist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": storefront(c).Cart.Wishlist()})
}

func (h *Handler) addWishlistItem(c *gin.Context) {
	sf := storefront(c)
	if err := sf.Cart.AddToWishlist(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sf.Cart.Wishlist()})
}

func (h *Handler) removeWishlistItem(c *gin.Context) {
	sf := storefront(c)
	if err := sf.Cart.RemoveFromWishlist(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sf.Cart.Wishlist()})
}

func (h *Handler) moveWishlistToCart(c *gin.Context) {
	h.cartMutation(c, func(ctx context.Context, sf *service.Storefront) error {
		return sf.Cart.MoveWishlistToCart(ctx, c.Param("id"))
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

// accountView is the user without the password digest
type accountView struct {
	ID        string           `json:"id"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	Roles     []string         `json:"roles"`
	Addresses []models.Address `json:"addresses"`
	Wishlist  []string         `json:"wishlist"`
	Orders    int              `json:"orders"`
}

func newAccountView(u *models.User) accountView {
	return accountView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Roles:     u.Roles,
		Addresses: u.Addresses,
		Wishlist:  u.Wishlist,
		Orders:    len(u.Orders),
	}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := storefront(c).Accounts.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAccountView(u))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := storefront(c).Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAccountView(u))
}

func (h *Handler) logout(c *gin.Context) {
	if err := storefront(c).Accounts.Logout(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := storefront(c).Accounts.ResetPassword(c.Request.Context(), req.Email, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *Handler) getAccount(c *gin.Context) {
	u := storefront(c).Accounts.CurrentUser()
	if u == nil {
		c.JSON(http.StatusOK, gin.H{"guest": true})
		return
	}
	c.JSON(http.StatusOK, newAccountView(u))
}

func (h *Handler) addAddress(c *gin.Context) {
	var req models.Address
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := storefront(c).Accounts.AddAddress(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAccountView(u))
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := storefront(c).Accounts.Orders()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := storefront(c).Accounts.Order(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) getQuote(c *gin.Context) {
	method := pricing.ParseMethod(c.Query("method"))
	c.JSON(http.StatusOK, gin.H{
		"method": method,
		"totals": storefront(c).Checkout.Quote(method),
	})
}

type placeOrderRequest struct {
	Method string `json:"method"`
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	order, err := storefront(c).Checkout.PlaceOrder(c.Request.Context(), pricing.ParseMethod(req.Method))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"order":   order,
		"message": "Order placed, a confirmation will be sent",
	})
}

func (h *Handler) getBlog(c *gin.Context) {
	c.JSON(http.StatusOK, h.blog.Latest(c.Request.Context()))
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
