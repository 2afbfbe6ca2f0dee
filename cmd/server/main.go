package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"lewa-workshop/config"
	"lewa-workshop/internal/database"
	"lewa-workshop/internal/server"
)

func main() {
	cfg := config.LoadConfig()
	gin.SetMode(cfg.Server.Mode)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.MigrateWorkshopDB(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.SeedRoles(db); err != nil {
		log.Fatalf("Failed to seed roles: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = config.NewRedisClient(cfg.Redis)
	}

	router := server.NewRouter(db, redisClient, cfg)

	logger := config.GetLogger()
	logger.WithField("port", cfg.Server.Port).Info("workshop server starting")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
