package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront-service/internal/auth"
	"storefront-service/internal/users"
	"storefront-service/middleware"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

// Signup registers an account and issues a session token. Duplicate
// identities come back as 409, missing fields as 400.
func (h *Handler) Signup(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newUser users.NewUser
	if err := c.ShouldBindJSON(&newUser); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if err := h.validate.Struct(newUser); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErrs[0].Field() + " value missing or invalid"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if newUser.Role != "" && !auth.ValidRole(newUser.Role) {
		slog.Error("unknown role requested", slog.String(logkey.TraceID, traceId), slog.String("Role", newUser.Role))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	user, err := h.u.InsertUser(c.Request.Context(), newUser)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			slog.Error("email already registered", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		slog.Error("error inserting user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	token, err := h.keys.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		slog.Error("error generating token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}
	setSessionCookie(c, token)

	slog.Info("user registered", slog.String(logkey.TraceID, traceId), slog.String("UserID", user.ID), slog.String("Role", user.Role))
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password are the same 401.
func (h *Handler) Login(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if err := h.validate.Struct(request); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := h.u.Authenticate(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			slog.Error("login rejected", slog.String(logkey.TraceID, traceId))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		slog.Error("error authenticating user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	token, err := h.keys.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		slog.Error("error generating token", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}
	setSessionCookie(c, token)

	slog.Info("user logged in", slog.String(logkey.TraceID, traceId), slog.String("UserID", user.ID))
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Logout clears the session cookie. Tokens themselves stay valid until
// expiry; there is no server-side revocation list.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieName, token, int(auth.TokenValidity.Seconds()), "/", "", false, true)
}
