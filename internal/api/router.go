package api

import (
	"github.com/gin-gonic/gin"

	"github.com/nickheyer/crawlkit/internal/cachestore"
	"github.com/nickheyer/crawlkit/internal/cachestore/memory"
)

// NewRouter builds the gin engine exposing the extraction core's HTTP
// surface: GET /schema, POST /validate, POST /run. Each /run request gets
// a fresh in-memory cache; use NewRouterWithCache for a host process that
// wants a shared or persistent backend instead.
func NewRouter() *gin.Engine {
	return NewRouterWithCache(func() cachestore.Cache { return memory.New() })
}

// NewRouterWithCache is NewRouter with the per-request cache backend
// supplied by the caller, so a host process can wire up its own configured
// cachestore implementation (e.g. internal/cachestore/sqlite).
func NewRouterWithCache(newCache func() cachestore.Cache) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	h := &handlers{newCache: newCache}
	api := r.Group("/api")
	{
		api.GET("/schema", h.schema)
		api.POST("/validate", h.validate)
		api.POST("/run", h.run)
	}

	return r
}
