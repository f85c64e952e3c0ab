package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
	"github.com/recipebox/backend/internal/service"
)

const authUserKey = "auth_user"

// AuthMiddleware requires a bearer access token and attaches the user it
// was issued for to the request.
func AuthMiddleware(authService *service.AuthService, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			writeError(c, log, apperror.Unauthorized("Authentication required"))
			return
		}
		if !attachUser(c, authService, log, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the caller when a bearer token is sent
// and lets anonymous requests through. A token that is sent but invalid is
// still rejected.
func OptionalAuthMiddleware(authService *service.AuthService, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok && !attachUser(c, authService, log, token) {
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if !strings.HasPrefix(header, "Bearer ") || token == "" {
		return "", false
	}
	return token, true
}

func attachUser(c *gin.Context, authService *service.AuthService, log logging.Logger, token string) bool {
	user, err := authService.Authenticate(c.Request.Context(), token)
	if err != nil {
		writeError(c, log, err)
		return false
	}

	c.Set(authUserKey, &model.AuthUser{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
	return true
}

// RequireRole lets the request through only when the authenticated user
// holds one of roles. It must run after AuthMiddleware.
func RequireRole(log logging.Logger, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetAuthUser(c)
		if user == nil {
			writeError(c, log, apperror.Unauthorized("Authentication required"))
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		writeError(c, log, apperror.Forbidden("Insufficient permissions"))
	}
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}

func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				c.Header("Access-Control-Expose-Headers", "X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestLogger logs one line per request once it has been served.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}
