package api

import (
	"github.com/gin-gonic/gin"

	"github.com/peerrent/compass/internal/api/handlers"
	"github.com/peerrent/compass/internal/api/middleware"
)

type Router struct {
	searchHandler *handlers.SearchHandler
}

func NewRouter(searchHandler *handlers.SearchHandler) *Router {
	return &Router{searchHandler: searchHandler}
}

func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.RequestID())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	{
		v1.GET("/search", r.searchHandler.Search)
		v1.GET("/locations/reverse", r.searchHandler.Reverse)
	}
}
