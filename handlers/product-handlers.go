package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront-service/internal/auth"
	"storefront-service/internal/products"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

func (h *Handler) CreateProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	// Keep oversized payloads out before decoding.
	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var newProduct products.NewProduct
	if err := c.ShouldBindJSON(&newProduct); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if err := h.validate.Struct(newProduct); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, vErr := range vErrs {
				switch vErr.Tag() {
				case "required":
					slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " value missing"})
					return
				default:
					slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if !products.ValidCategory(newProduct.Category) {
		slog.Error("unknown category", slog.String(logkey.TraceID, traceId), slog.String("Category", newProduct.Category))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return
	}

	insertedProduct, err := h.p.InsertProduct(c.Request.Context(), newProduct, claims.Subject)
	if err != nil {
		if errors.Is(err, products.ErrInvalidPrice) {
			slog.Error("invalid price pair", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("error in inserting the product", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Product Creation Failed"})
		return
	}

	slog.Info("product created", slog.String(logkey.TraceID, traceId), slog.String("ProductID", insertedProduct.ID), slog.String("VendorID", claims.Subject))
	c.JSON(http.StatusCreated, insertedProduct)
}

func (h *Handler) GetProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	productID := c.Param("id")

	product, err := h.p.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		slog.Error("error in retrieving product", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// UpdateProduct lets an admin edit any product and a vendor edit only its
// own. A vendor hitting someone else's product gets 403 and the product is
// untouched.
func (h *Handler) UpdateProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	productID := c.Param("id")
	currentProduct, err := h.p.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		slog.Error("error in retrieving product", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}

	if claims.Role == auth.RoleVendor && currentProduct.VendorID != claims.Subject {
		slog.Error("vendor does not own product", slog.String(logkey.TraceID, traceId),
			slog.String("ProductID", productID), slog.String("VendorID", claims.Subject))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var updatedProduct products.NewProduct
	if err := c.ShouldBindJSON(&updatedProduct); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}
	if err := h.validate.Struct(updatedProduct); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !products.ValidCategory(updatedProduct.Category) {
		slog.Error("unknown category", slog.String(logkey.TraceID, traceId), slog.String("Category", updatedProduct.Category))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
		return
	}

	product, err := h.p.UpdateProductInDB(c.Request.Context(), productID, updatedProduct)
	if err != nil {
		if errors.Is(err, products.ErrInvalidPrice) {
			slog.Error("invalid price pair", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("error in updating the product", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Product update failed"})
		return
	}

	slog.Info("product updated successfully", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	productID := c.Param("id")

	err := h.p.DeleteProductFromDB(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, products.ErrNotFound) {
			slog.Error("product not found", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		slog.Error("error in deleting the product", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Product deletion failed"})
		return
	}

	slog.Info("product deleted", slog.String(logkey.TraceID, traceId), slog.String("ProductID", productID))
	c.JSON(http.StatusOK, gin.H{"message": "Product successfully deleted"})
}

// ListProducts evaluates a catalog query: optional category and search
// filters, an optional sort key, and a page slice with totals over the
// whole filtered set.
func (h *Handler) ListProducts(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	filter := products.Filter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	sort := c.Query("sort")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		slog.Error("invalid page parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid page parameter"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "12"))
	if err != nil || limit < 1 {
		slog.Error("invalid limit parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}

	result, err := h.p.List(c.Request.Context(), filter, page, limit, sort)
	if err != nil {
		slog.Error("error in fetching products", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": result.Products,
		"pagination": gin.H{
			"page":  result.Page,
			"limit": result.Limit,
			"total": result.Total,
			"pages": result.Pages,
		},
	})
}
