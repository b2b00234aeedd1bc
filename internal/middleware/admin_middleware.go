package middleware

import (
	"net/http"

	"pollbox/internal/services"
	"pollbox/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware gates poll authoring. Must run after AuthMiddleware. A
// non-admin gets 403 and the handler never runs, so no state can change.
func AdminMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := services.UserIDFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		u, err := service.CurrentUser(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		if !u.IsAdmin() {
			c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("forbidden", "FORBIDDEN"))
			c.Abort()
			return
		}

		c.Next()
	}
}
