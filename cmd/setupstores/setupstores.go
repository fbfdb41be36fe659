package main

import (
	"context"
	"fmt"
	"os"

	"prepwise/config"
	"prepwise/db"
	"prepwise/logging"
	"prepwise/services/pinecone"

	"github.com/rs/zerolog/log"
)

// setupstores prepares every memory backend that has credentials configured:
// it applies the Postgres migrations and creates the Pinecone index.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Debug)
	log.Info().Msg("[INFO] Starting memory store setup")

	ctx := context.Background()
	prepared := 0

	if cfg.DatabaseURL != "" {
		if err := migratePostgres(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("[ERROR] Failed to migrate Postgres")
		}
		prepared++
	}

	if cfg.PineconeAPIKey != "" {
		pc, err := pinecone.NewClient(cfg.PineconeAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("[ERROR] Failed to create Pinecone client")
		}
		if err := pinecone.EnsureIndex(ctx, pc, cfg.PineconeIndexName); err != nil {
			log.Fatal().Err(err).Msg("[ERROR] Failed to ensure Pinecone index")
		}
		prepared++
	}

	if prepared == 0 {
		log.Fatal().Msg("[ERROR] Nothing to set up: set DB_URL and/or PINECONE_API_KEY")
	}

	log.Info().Msgf("[INFO] Memory store setup completed (%d store(s))", prepared)
}

func migratePostgres(databaseURL string) error {
	conn, err := db.Open(databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info().Msg("[INFO] Applying Postgres migrations")
	return db.Migrate(conn)
}
