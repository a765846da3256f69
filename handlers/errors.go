package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/pkg/logger"
)

var log = logger.Named("http")

// respondError writes the JSON error body for err. Backend and configuration
// details are logged and never returned.
func respondError(c *gin.Context, err error, notFound string) {
	status := apperr.Status(err)
	var fe *apperr.FieldError
	var ce *apperr.ConflictError
	switch {
	case errors.As(err, &fe):
		c.JSON(status, gin.H{"error": fe.Error()})
	case errors.As(err, &ce):
		c.JSON(status, gin.H{"error": "Record already exists"})
	case status == http.StatusUnauthorized:
		c.JSON(status, gin.H{"error": "Invalid credentials"})
	case status == http.StatusNotFound:
		c.JSON(status, gin.H{"error": notFound})
	case status == http.StatusBadRequest:
		log.Debugf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Invalid request"})
	case status == http.StatusForbidden:
		c.JSON(status, gin.H{"error": "Insufficient permissions"})
	default:
		log.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badJSON(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
