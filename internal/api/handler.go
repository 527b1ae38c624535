package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog *service.CatalogService
	cart    *service.CartService
	orders  *service.OrderService
	admin   *service.AdminService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	cart *service.CartService,
	orders *service.OrderService,
	admin *service.AdminService,
) *Handler {
	return &Handler{
		catalog: catalog,
		cart:    cart,
		orders:  orders,
		admin:   admin,
	}
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
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/products/:id/price", h.getEffectivePrice)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart", h.addToCart)
		v1.PUT("/cart/items/:id", h.updateCartQuantity)
		v1.DELETE("/cart/items/:id", h.removeFromCart)

		v1.POST("/orders", h.placeOrder)
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/:id", h.getOrder)

		v1.GET("/wishlist", h.getWishlist)
		v1.POST("/wishlist/:productID", h.toggleWishlist)

		v1.GET("/comments", h.listComments)
		v1.POST("/comments", h.submitComment)

		admin := v1.Group("/admin")
		{
			admin.POST("/products", h.createProduct)
			admin.PUT("/products/:id", h.updateProduct)
			admin.POST("/products/:id/deactivate", h.deactivateProduct)
			admin.POST("/products/:id/restock", h.restockProduct)
			admin.GET("/offers", h.listOffers)
			admin.POST("/offers", h.createOffer)
			admin.POST("/offers/:id/activate", h.activateOffer)
			admin.POST("/offers/:id/deactivate", h.deactivateOffer)
			admin.GET("/orders", h.adminListOrders)
			admin.PUT("/orders/:id/status", h.updateOrderStatus)
			admin.POST("/comments/:id/respond", h.respondToComment)
			admin.GET("/dashboard", h.getDashboard)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(),
		c.Query("category"), c.Query("featured") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) getEffectivePrice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	price, err := h.catalog.EffectivePrice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": id, "price": price})
}

type addToCartRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) addToCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	line, err := h.cart.AddItem(c.Request.Context(), userID, req.ProductID, req.Size, req.Color, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) updateCartQuantity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	lineID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.cart.UpdateQuantity(c.Request.Context(), userID, lineID, req.Quantity); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeFromCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	lineID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.cart.RemoveItem(c.Request.Context(), userID, lineID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	view, err := h.cart.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type placeOrderRequest struct {
	Shipping      models.ShippingAddress `json:"shipping" binding:"required"`
	PaymentMethod string                 `json:"payment_method" binding:"required"`
}

func (h *Handler) placeOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, items, err := h.orders.PlaceOrder(c.Request.Context(), &service.PlaceOrderRequest{
		UserID:        userID,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "items": items})
}

func (h *Handler) listOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orders, err := h.orders.ListOrders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, items, err := h.orders.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": items})
}

func (h *Handler) getWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	entries, err := h.catalog.GetWishlist(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": entries})
}

func (h *Handler) toggleWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "productID")
	if !ok {
		return
	}
	added, err := h.catalog.ToggleWishlist(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": productID, "wishlisted": added})
}

type submitCommentRequest struct {
	Type    string `json:"type" binding:"required"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

func (h *Handler) submitComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req submitCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	comment, err := h.catalog.SubmitComment(c.Request.Context(), userID, req.Type, req.Subject, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) listComments(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	comments, err := h.catalog.GetComments(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type productRequest struct {
	Name          models.LocalizedText `json:"name" binding:"required"`
	Description   models.LocalizedText `json:"description"`
	Price         int64                `json:"price" binding:"required"`
	DiscountPrice *int64               `json:"discount_price"`
	Category      string               `json:"category" binding:"required"`
	Subcategory   string               `json:"subcategory"`
	Sizes         []string             `json:"sizes"`
	Colors        []string             `json:"colors"`
	Stock         int                  `json:"stock"`
	Images        []string             `json:"images"`
	IsFeatured    bool                 `json:"is_featured"`
}

func (r *productRequest) toInput() *service.ProductInput {
	return &service.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		DiscountPrice: r.DiscountPrice,
		Category:      r.Category,
		Subcategory:   r.Subcategory,
		Sizes:         r.Sizes,
		Colors:        r.Colors,
		Stock:         r.Stock,
		Images:        r.Images,
		IsFeatured:    r.IsFeatured,
	}
}

func (h *Handler) createProduct(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, err := h.admin.CreateProduct(c.Request.Context(), callerID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product, err := h.admin.UpdateProduct(c.Request.Context(), callerID, productID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deactivateProduct(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeactivateProduct(c.Request.Context(), callerID, productID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type restockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

func (h *Handler) restockProduct(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.admin.RestockProduct(c.Request.Context(), callerID, productID, req.Delta); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type offerRequest struct {
	ProductID   int64                `json:"product_id" binding:"required"`
	Title       models.LocalizedText `json:"title" binding:"required"`
	Description models.LocalizedText `json:"description"`
	DiscountPct decimal.Decimal      `json:"discount_pct" binding:"required"`
	StartsAt    time.Time            `json:"starts_at" binding:"required"`
	EndsAt      time.Time            `json:"ends_at" binding:"required"`
}

func (h *Handler) listOffers(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	offers, err := h.admin.ListOffers(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

func (h *Handler) createOffer(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}

	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	offer, err := h.admin.CreateOffer(c.Request.Context(), callerID, &service.OfferInput{
		ProductID:   req.ProductID,
		Title:       req.Title,
		Description: req.Description,
		DiscountPct: req.DiscountPct,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (h *Handler) activateOffer(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	offerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	offer, err := h.admin.ActivateOffer(c.Request.Context(), callerID, offerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (h *Handler) deactivateOffer(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	offerID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeactivateOffer(c.Request.Context(), callerID, offerID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminListOrders(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	orders, err := h.admin.ListOrders(c.Request.Context(), callerID, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.admin.UpdateOrderStatus(c.Request.Context(), callerID, orderID, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type respondRequest struct {
	Response string `json:"response" binding:"required"`
}

func (h *Handler) respondToComment(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.admin.RespondToComment(c.Request.Context(), callerID, commentID, req.Response); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getDashboard(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	dashboard, err := h.admin.GetDashboard(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// currentUser reads the caller identity set by the upstream auth layer.
func currentUser(c *gin.Context) (int64, bool) {
	raw := c.GetHeader("X-User-ID")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid X-User-ID header"})
		return 0, false
	}
	return userID, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps domain errors onto HTTP statuses with enough structure
// for the caller to show which line or field failed.
func respondError(c *gin.Context, err error) {
	var rejection *models.RejectionDetail
	if errors.As(err, &rejection) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Order rejected",
			"lines": rejection.Lines,
		})
		return
	}

	var fields models.FieldErrors
	if errors.As(err, &fields) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"fields": fields,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
	case errors.Is(err, models.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
	case errors.Is(err, models.ErrProductInactive):
		c.JSON(http.StatusConflict, gin.H{"error": "Product is inactive"})
	case errors.Is(err, models.ErrInsufficientStock), errors.Is(err, models.ErrConflictNoRetry):
		c.JSON(http.StatusConflict, gin.H{"error": "Item no longer available"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
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
