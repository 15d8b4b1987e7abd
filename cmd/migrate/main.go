package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun/driver/pgdriver"

	"icpep-backend/internal/config"
	"icpep-backend/internal/database/migrations"
	"icpep-backend/internal/logger"
	"icpep-backend/internal/mongodb"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "apply only n migrations in the chosen direction (0 means all)")
	skipMongo := flag.Bool("skip-mongo", false, "do not ensure MongoDB indexes")
	flag.Parse()

	log := logger.NewLogger("icpep-migrate")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	defer sqldb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}

	runner := migrations.NewRunner(sqldb, migrations.Options{MigrationsDir: cfg.Postgres.MigrationsDir}, log)
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn("MIGRATE", err.Error())
		}
	}()

	var err error
	switch {
	case *steps != 0 && *direction == "down":
		err = runner.Steps(-*steps)
	case *steps != 0:
		err = runner.Steps(*steps)
	case *direction == "down":
		err = runner.Down()
	case *direction == "up":
		err = runner.Up()
	default:
		err = fmt.Errorf("unknown direction %q", *direction)
	}
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", fmt.Sprintf("✅ PostgreSQL migrations %s complete", *direction))

	if *skipMongo || *direction != "up" {
		return
	}
	store, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("MongoDB connection error: %v", err))
	}
	defer func() { _ = store.Close(context.Background()) }()
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to ensure indexes: %v", err))
	}
	log.Info("MIGRATE", "✅ MongoDB indexes ensured")
}
