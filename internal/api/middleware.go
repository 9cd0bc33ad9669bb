package api

import (
	"errors"
	"net/http"
	"strconv"

	"marketnet/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserIDHeader carries the caller id set by the fronting auth layer
const UserIDHeader = "X-User-ID"

const callerKey = "caller"

// identify resolves the caller from UserIDHeader. Requests without the header
// are anonymous; a header naming no identity is rejected.
func (h *Handler) identify(c *gin.Context) {
	raw := c.GetHeader(UserIDHeader)
	if raw == "" {
		c.Next()
		return
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	user, err := h.identities.Authenticate(c.Request.Context(), userID)
	if errors.Is(err, service.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to resolve caller", zap.Int64("user_id", userID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Set(callerKey, service.Caller{UserID: user.ID, IsStaff: user.IsStaff})
	c.Next()
}

func callerFrom(c *gin.Context) (service.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return service.Caller{}, false
	}
	caller, ok := v.(service.Caller)
	return caller, ok
}

func safeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// requirePermission enforces p before the route handler runs
func requirePermission(p Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p == AllowAny || (p == AdminOrReadOnly && safeMethod(c.Request.Method)) {
			c.Next()
			return
		}

		caller, ok := callerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
			return
		}
		if (p == AdminOnly || p == AdminOrReadOnly) && !caller.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
			return
		}
		c.Next()
	}
}
