package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/meucardapio/pedidos-app/antiabuse"
	"github.com/meucardapio/pedidos-app/utils"
)

const throttledMessage = "Muitas tentativas. Aguarde um instante e tente novamente."

// OrderRateLimit gates the public submission endpoint with the fixed-window
// limiter, keyed by hashed client IP. If the limiter itself fails, the gate
// degrades open: an infrastructure fault must not block legitimate traffic.
func OrderRateLimit(limiter *antiabuse.Limiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, logID := antiabuse.ClientKey(c.Request)

		var result antiabuse.Result
		allowed := func() (ok bool) {
			defer func() {
				if r := recover(); r != nil {
					utils.ErrorLogger.WithField("panic", r).
						Error("rate limiter failure, degrading open")
					ok = true
				}
			}()
			result = limiter.Consume(key, maxRequests, window, time.Now())
			return result.OK
		}()

		if !allowed {
			utils.InfoLogger.WithField("client", logID).
				Info("order submission throttled")
			c.Header("Retry-After", strconv.Itoa(result.RetryAfterSeconds))
			utils.NoStore(c)
			utils.AbortErrorCode(c, http.StatusTooManyRequests, "validation", throttledMessage)
			return
		}
		c.Next()
	}
}

// LoginRateLimit is the stricter process-wide limiter in front of the staff
// login endpoint.
func LoginRateLimit() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(time.Minute/5), 5)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			utils.AbortErrorCode(c, http.StatusTooManyRequests, "validation",
				throttledMessage)
			return
		}
		c.Next()
	}
}
