// Package api implements the thin HTTP surface (§6.7): POST /validate,
// GET /schema, POST /run, following this stack's own gin-based handler/
// router split and gin.H{success,data|error} response envelope.
package api

import "github.com/gin-gonic/gin"

func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

func successResponse(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}
