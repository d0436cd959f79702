// Package server is the HTTP surface of the warranty agent.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by the health and root endpoints.
const Version = "1.0.0"

type Config struct {
	Host  string `envconfig:"HOST" split_words:"true" default:"0.0.0.0"`
	Port  int    `envconfig:"PORT" split_words:"true" default:"8005"`
	Debug bool   `envconfig:"DEBUG" split_words:"true" default:"false"`
}

type Server struct {
	engine  *gin.Engine
	runner  QueryRunner
	prober  HealthProber
	version string
	addr    string
}

// New wires the routes. The prober may be nil; health then reports unknown
// collaborator statuses.
func New(runner QueryRunner, prober HealthProber, cfg Config) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		runner:  runner,
		prober:  prober,
		version: Version,
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware())

	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)
	engine.POST("/agent/query", s.handleQuery)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = engine
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run() error {
	return s.engine.Run(s.addr)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
