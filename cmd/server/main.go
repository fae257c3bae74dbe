package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/notaryops/travel-permits/internal/assistant"
	"github.com/notaryops/travel-permits/internal/config"
	"github.com/notaryops/travel-permits/internal/database"
	"github.com/notaryops/travel-permits/internal/docgen"
	"github.com/notaryops/travel-permits/internal/handler"
	"github.com/notaryops/travel-permits/internal/lookup"
	"github.com/notaryops/travel-permits/internal/permit"
	"github.com/notaryops/travel-permits/internal/queue"
	"github.com/notaryops/travel-permits/internal/repository"
	"github.com/notaryops/travel-permits/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("database schema: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting, caching and lookup cache disabled")
	}

	store := repository.NewStore(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	queryLog := repository.NewQueryLogRepo(db)

	renderer := docgen.NewFileRenderer(cfg.TemplateDir, cfg.DocumentDir, cfg.NotaryName, cfg.OfficeCity)
	svc := permit.NewService(store, renderer)
	asst := assistant.New(store, queryLog)

	dniClient := lookup.NewDNIClient(cfg.DNILookupURL, rdb)
	geoClient := lookup.NewGeoClient(cfg.GeoLookupURL, rdb)

	// Audit consumer runs for the lifetime of the process, reconnecting
	// on broker failures.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, rdb, router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, users, tokens),
		Permits:   handler.NewPermitHandler(svc, users),
		Identity:  handler.NewIdentityHandler(svc, users),
		Export:    handler.NewExportHandler(svc),
		Assistant: handler.NewAssistantHandler(asst),
		Lookup:    handler.NewLookupHandler(dniClient, geoClient),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
