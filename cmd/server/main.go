package main

import (
	"context"
	"log"
	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/router"
	"yatube/internal/services"
	"yatube/internal/utils"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Initialize Database
	conn := db.Init(cfg.DatabaseURL)
	db.SeedGroups(conn)

	cache := utils.NewPageCache(ctx, cfg)

	media, err := services.NewMediaStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to init media store: %v", err)
	}

	r := router.New(router.Deps{
		Config: cfg,
		DB:     conn,
		Cache:  cache,
		Media:  media,
	})

	log.Printf("Yatube server starting on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
