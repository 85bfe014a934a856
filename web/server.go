// Package web is the HTTP surface: a synchronous webhook, a websocket
// chat endpoint and a health probe. When a gateway is configured it also
// runs the engine's gateway dispatch loop.
package web

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"tripbot/engine"
	gw "tripbot/gateway/gateway"
)

type ServiceConfig struct {
	IsDev  bool
	Port   string
	Engine *engine.Engine
	// Gateway is optional; nil means webhook/websocket only.
	Gateway gw.Gateway
}

func Serve(cfg ServiceConfig) {
	if !cfg.IsDev {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Gateway != nil {
		go func() {
			if err := cfg.Engine.Run(context.Background(), cfg.Gateway); err != nil && err != context.Canceled {
				log.Printf("gateway dispatch loop stopped: %v", err)
			}
		}()
	}

	r := gin.Default()
	setupMiddlewares(r)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.POST("/message", MessageHandler(cfg.Engine))
	r.GET("/ws", WebsocketHandler(cfg.Engine))

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}
