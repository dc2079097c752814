package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meucardapio/pedidos-app/utils"
)

const authErrorMessage = "Acesso não autorizado."

// AuthMiddleware requires a valid staff session token on admin routes.
// Unauthenticated attempts are rejected with the auth code, distinct from
// validation and staleness failures.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			utils.PrivateNoStore(c)
			utils.AbortErrorCode(c, http.StatusUnauthorized, "auth", authErrorMessage)
			return
		}

		tokenString := strings.TrimPrefix(token, "Bearer ")
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.PrivateNoStore(c)
			utils.AbortErrorCode(c, http.StatusUnauthorized, "auth", authErrorMessage)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
