package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"marketnet/internal/models"
	"marketnet/internal/service"
	"marketnet/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog is the catalog operations the API exposes
type Catalog interface {
	ListCollections(ctx context.Context) ([]models.Collection, error)
	GetCollection(ctx context.Context, id int64) (*models.Collection, error)
	CreateCollection(ctx context.Context, in service.CollectionInput) (*models.Collection, error)
	UpdateCollection(ctx context.Context, id int64, in service.CollectionInput) (*models.Collection, error)
	DeleteCollection(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, in service.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in service.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	PriceWithTax(p *models.Product) decimal.Decimal

	ListPromotions(ctx context.Context) ([]models.Promotion, error)
	CreatePromotion(ctx context.Context, description string, discount float64) (*models.Promotion, error)
	SetProductPromotions(ctx context.Context, productID int64, promotionIDs []int64) ([]models.Promotion, error)
	ListProductPromotions(ctx context.Context, productID int64) ([]models.Promotion, error)

	ListReviews(ctx context.Context, productID int64) ([]models.Review, error)
	CreateReview(ctx context.Context, productID int64, name, description string) (*models.Review, error)
}

// Carts is the cart operations the API exposes
type Carts interface {
	CreateCart(ctx context.Context) (*models.Cart, error)
	GetCart(ctx context.Context, id uuid.UUID) (*service.CartView, error)
	DeleteCart(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error)
	GetItem(ctx context.Context, cartID uuid.UUID, itemID int64) (*models.CartLine, error)
	AddItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*models.CartLine, error)
	UpdateItem(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (*models.CartLine, error)
	RemoveItem(ctx context.Context, cartID uuid.UUID, itemID int64) error
}

// Orders is the order operations the API exposes
type Orders interface {
	PlaceOrder(ctx context.Context, cartID uuid.UUID, userID int64) (*service.OrderDetail, error)
	GetOrder(ctx context.Context, orderID int64, caller service.Caller) (*service.OrderDetail, error)
	ListOrders(ctx context.Context, caller service.Caller) ([]service.OrderDetail, error)
	UpdatePaymentStatus(ctx context.Context, orderID int64, status string) (*service.OrderDetail, error)
}

// Identities registers and resolves callers
type Identities interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, userID int64) (*models.User, error)
}

// Customers is the customer profile operations the API exposes
type Customers interface {
	Me(ctx context.Context, userID int64) (*models.Customer, error)
	UpdateMe(ctx context.Context, userID int64, in service.CustomerInput) (*models.Customer, error)
	List(ctx context.Context) ([]models.Customer, error)
	Get(ctx context.Context, id int64) (*models.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Tags is the tagging operations the API exposes
type Tags interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, label string) (*models.Tag, error)
	TagObject(ctx context.Context, tagID int64, target models.TagRef) (*models.TaggedItem, error)
	TagsFor(ctx context.Context, target models.TagRef) ([]models.Tag, error)
	Untag(ctx context.Context, tagID int64, target models.TagRef) error
}

// Pinger is a dependency the readiness probe checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the HTTP API
type Deps struct {
	Catalog    Catalog
	Carts      Carts
	Orders     Orders
	Identities Identities
	Customers  Customers
	Tags       Tags
	// Checks are pinged by /ready, keyed by name
	Checks map[string]Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	catalog    Catalog
	carts      Carts
	orders     Orders
	identities Identities
	customers  Customers
	tags       Tags
	checks     map[string]Pinger
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Deps) *Handler {
	return &Handler{
		catalog:    deps.Catalog,
		carts:      deps.Carts,
		orders:     deps.Orders,
		identities: deps.Identities,
		customers:  deps.Customers,
		tags:       deps.Tags,
		checks:     deps.Checks,
		logger:     util.GetLogger(),
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
	v1.Use(h.identify)

	registry := h.resources()
	v1.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, describe(registry, "/api/v1"))
	})
	for _, res := range registry {
		res.mount(v1, AllowAny)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failures := gin.H{}
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "not ready",
			"failures": failures,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError maps service errors onto HTTP statuses. Unexpected errors are
// logged and reported without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var cerr *service.ConflictError

	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Message}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &cerr):
		c.JSON(http.StatusConflict, gin.H{"error": cerr.Message})
	default:
		h.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// idParam parses a numeric path parameter. An unparseable id addresses nothing.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return id, true
}

func cartParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return uuid.Nil, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
		util.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
