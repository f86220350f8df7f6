// Package api exposes the repository's observational state over a small,
// read-only debug HTTP API.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	specnock "github.com/specnock/specnock"
	"github.com/specnock/specnock/internal/tracing"
)

// Router handles debug API routing
type Router struct {
	engine    *gin.Engine
	handler   *Handler
	wsHandler *tracing.WebSocketHandler
}

// NewRouter creates a new debug API router over a repository
func NewRouter(repo *specnock.Repository) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:    gin.New(),
		handler:   NewHandler(repo),
		wsHandler: tracing.NewWebSocketHandler(repo.TraceService()),
	}

	r.engine.Use(gin.Recovery())
	r.setupRoutes()

	return r
}

// setupRoutes configures all routes
func (r *Router) setupRoutes() {
	api := r.engine.Group("/_api")
	{
		api.GET("/state", r.handler.GetState)
		api.GET("/endpoints", r.handler.ListEndpoints)
		api.GET("/specs", r.handler.ListSpecs)
		api.GET("/intercepts", r.handler.ListIntercepts)
		api.GET("/stats", r.handler.GetStats)

		api.GET("/traces", r.handler.ListTraces)
		api.GET("/traces/live", gin.WrapH(r.wsHandler))

		api.POST("/match", r.handler.Match)
		api.POST("/restore", r.handler.Restore)
	}
}

// Handler returns the underlying http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}
