package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spotpilot/logger"
)

// SafeInternalError logs the real error and returns a generic message so
// internal details (db dialect, stack traces) never reach the client.
func SafeInternalError(c *gin.Context, operation string, err error) {
	logger.Errorf("api: %s: %v", operation, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": operation + " failed"})
}

func SafeBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func SafeNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
}

func SafeUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
