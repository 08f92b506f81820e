package main

import (
	"log"
	"net/http"

	"lip-sprint/internal/config"
	"lip-sprint/internal/db"
	"lip-sprint/internal/game"
	"lip-sprint/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	conn, err := db.Open()
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	if err := db.ConfigurePool(conn, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns,
		cfg.DBConnMaxLifetimeSeconds, cfg.DBConnMaxIdleTimeSeconds); err != nil {
		log.Fatalf("database pool configuration failed: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	engine := game.New(conn)
	if err := engine.EnsureCardsSeeded(); err != nil {
		log.Fatalf("card seeding failed: %v", err)
	}

	srv := server.New(engine)
	addr := ":" + cfg.Port
	log.Printf("lip-sprint server listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
