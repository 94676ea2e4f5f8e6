package auth

import (
	"strings"

	"edm-backend/internal/errors"
	"edm-backend/redis"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthMiddleWare verifies the bearer token, checks the session is still
// active in Redis, and stores the caller's identity in the gin context.
func AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		// verify token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		parsedToken, err := VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		userID, username, role, err := GetDataFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		// logout revokes the session, the token alone is not enough
		exists, err := redis.SessionExists(ctx.Request.Context(), token)
		if err != nil || !exists {
			ctx.Error(errors.Unauthorized("Token expired or not found", err))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", userID)
		ctx.Set("username", username)
		ctx.Set("role", role)
		ctx.Set("jwt_token", token)
		ctx.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allowed set.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(ctx *gin.Context) {
		if _, ok := allowed[CurrentRole(ctx)]; !ok {
			ctx.Error(errors.Forbidden("Insufficient role", nil))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func CurrentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func CurrentUsername(c *gin.Context) string {
	return c.GetString("username")
}

// CurrentRole returns the raw role claim. Callers that need the typed role
// parse it themselves.
func CurrentRole(c *gin.Context) string {
	return c.GetString("role")
}

func CurrentToken(c *gin.Context) string {
	return c.GetString("jwt_token")
}
