package api

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/sauravnr/ludopi-sub000/game"
	"github.com/sauravnr/ludopi-sub000/stats"
	"github.com/sauravnr/ludopi-sub000/util"
	"github.com/sauravnr/ludopi-sub000/ws"
)

type Server struct {
	config    *util.Config
	registry  *game.Registry
	wsManager *ws.Manager
	router    *gin.Engine
}

func NewServer(config *util.Config, rdb *redis.Client) *Server {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{config.CORSOrigin},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	registry := game.NewRegistry()
	manager := ws.NewManager(config, registry, stats.NewSink(rdb))

	server := &Server{
		config:    config,
		registry:  registry,
		wsManager: manager,
		router:    router,
	}

	registry.StartSweeper(manager.NotifyRoomClosing)

	router.Any("/ws", server.wsManager.ServeWS)
	router.POST("/auth/username", server.TokenGenerator)
	router.POST("/rooms", server.AuthMiddleware, server.CreateRoom)
	router.GET("/rooms/:code", server.CheckRoom)

	return server
}

func (s *Server) Start() error {
	return s.router.Run(fmt.Sprintf(":%v", s.config.Port))
}
