package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kusina-pos/api/internal/config"
	"github.com/kusina-pos/api/internal/database"
	"github.com/kusina-pos/api/internal/mq"
	"github.com/kusina-pos/api/internal/router"
	"github.com/kusina-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	// The broker is optional. Settlements are durable in Postgres either
	// way; without a broker the fiscal export queue just has no live feed.
	var broker *mq.Client
	if cfg.AMQPURL != "" {
		broker, err = mq.Dial(cfg.AMQPURL)
		if err != nil {
			log.Printf("WARNING: message broker unavailable, continuing without it: %v", err)
		} else {
			defer broker.Close()
			if err := broker.DeclareTopology(); err != nil {
				log.Fatalf("Failed to declare broker topology: %v", err)
			}
			log.Println("Connected to message broker")
		}
	}

	r := router.New(cfg, queries, pool, hub, broker)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
