package handlers

import (
	"github.com/gin-gonic/gin"
)

type HealthHandler struct{}

func (hh *HealthHandler) healthHandler(c *gin.Context) {
	c.String(200, "ok")
}
