package main

import (
	"context"
	"log"

	"oraculo-be/internal/bootstrap"
	"oraculo-be/internal/config"
	"oraculo-be/internal/server"
	"oraculo-be/internal/tracer"
	"oraculo-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDB(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	// Generation dispatch consumer
	go func() {
		log.Println("Background: starting generation consumer...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background consumer error: %v", err)
		}
	}()

	srv := server.New(cfg, container)
	if err := srv.Run(); err != nil {
		log.Panicf("Server stopped: %v", err)
	}
}
