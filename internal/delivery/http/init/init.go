package http_init

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api"

type Controller interface {
	RegisterRoutes(router *gin.RouterGroup)
}

type ControllerPool struct {
	pool   []Controller
	root   []Controller
	rg     *gin.RouterGroup
	engine *gin.Engine
}

func NewControllerPool(middleware ...gin.HandlerFunc) *ControllerPool {
	engine := gin.Default()
	engine.Use(middleware...)
	rg := engine.Group(apiPrefix)
	return &ControllerPool{
		pool:   make([]Controller, 0, 10),
		rg:     rg,
		engine: engine,
	}
}

// Add mounts c under the api prefix.
func (pool *ControllerPool) Add(c Controller) {
	pool.pool = append(pool.pool, c)
}

// AddRoot mounts c at the server root (websocket endpoint, docs).
func (pool *ControllerPool) AddRoot(c Controller) {
	pool.root = append(pool.root, c)
}

func (pool *ControllerPool) Register() {
	for _, c := range pool.pool {
		c.RegisterRoutes(pool.rg)
	}
	for _, c := range pool.root {
		c.RegisterRoutes(&pool.engine.RouterGroup)
	}
}

func (pool *ControllerPool) Handler() http.Handler {
	return pool.engine
}
