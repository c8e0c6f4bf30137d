package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront-service/internal/auth"
	"storefront-service/internal/orders"
	"storefront-service/internal/pricing"
	"storefront-service/internal/products"
	"storefront-service/internal/stores/kafka"
	"storefront-service/internal/users"
	"storefront-service/middleware"
)

type Handler struct {
	u        *users.Conf
	p        *products.Conf
	o        *orders.Conf
	engine   *pricing.Engine
	keys     *auth.Keys
	k        *kafka.Conf // nil when no brokers are configured
	validate *validator.Validate
}

func NewHandler(u *users.Conf, p *products.Conf, o *orders.Conf, engine *pricing.Engine, keys *auth.Keys, k *kafka.Conf) *Handler {
	return &Handler{
		u:        u,
		p:        p,
		o:        o,
		engine:   engine,
		keys:     keys,
		k:        k,
		validate: validator.New(),
	}
}

// API builds the gin engine with every route of the storefront core.
// Read-only catalog routes are public; everything mutating goes through
// Authentication plus the role policy.
func API(endpointPrefix, ginMode string, keys *auth.Keys, u *users.Conf, p *products.Conf, o *orders.Conf,
	engine *pricing.Engine, k *kafka.Conf) (*gin.Engine, error) {

	if ginMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()

	m, err := middleware.NewMid(keys)
	if err != nil {
		return nil, err
	}
	h := NewHandler(u, p, o, engine, keys, k)

	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.POST("/auth/register", h.Signup)
		v1.POST("/auth/login", h.Login)
		v1.POST("/auth/logout", h.Logout)

		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)
	}

	authed := r.Group(endpointPrefix)
	{
		authed.Use(m.Authentication())
		authed.POST("/products", m.Authorize(h.CreateProduct, auth.ResourceProduct, auth.ActionCreate))
		authed.PUT("/products/:id", m.Authorize(h.UpdateProduct, auth.ResourceProduct, auth.ActionUpdate))
		authed.DELETE("/products/:id", m.Authorize(h.DeleteProduct, auth.ResourceProduct, auth.ActionDelete))

		authed.POST("/orders", m.Authorize(h.Checkout, auth.ResourceOrder, auth.ActionCreate))
		authed.GET("/orders", m.Authorize(h.ListOrders, auth.ResourceOrder, auth.ActionRead))
		authed.GET("/orders/:id", m.Authorize(h.GetOrder, auth.ResourceOrder, auth.ActionRead))
		// Transition permissions depend on ownership and the requested
		// edge, so the handler checks them itself.
		authed.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	}

	return r, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
