package middleware

import (
	"errors"

	apiError "edm-backend/internal/errors"
	"edm-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		// detect any errors
		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			var apiErr *apiError.APIError

			// if it's our custom APIError
			if !errors.As(err, &apiErr) {
				// If it's a raw error we didn't wrap, treat as Internal
				apiErr = apiError.Internal(err)
			}

			if apiErr.Status >= 500 {
				logger.L.Error("request failed",
					zap.String("path", c.FullPath()),
					zap.Error(apiErr.Internal),
				)
			} else {
				logger.L.Info("request rejected",
					zap.String("path", c.FullPath()),
					zap.Int("status", apiErr.Status),
					zap.String("reason", apiErr.Message),
				)
			}

			// Respond with JSON
			c.AbortWithStatusJSON(apiErr.Status, apiErr)
		}
	}
}
