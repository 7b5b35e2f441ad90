package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"equity-backtest/internal/api/models"
)

// ErrorHandler recovers panics and answers with the API's standard error
// envelope instead of a stack trace.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: msg,
			},
		})
	})
}
