// Command reseed wipes the rulebook and reinserts the default scripts.
// Operator-trained rules are discarded.
package main

import (
	"fmt"
	"os"

	"whatsapp-salesbot/internal/config"
	"whatsapp-salesbot/internal/database"
	"whatsapp-salesbot/internal/script"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("opening store failed", zap.Error(err))
	}
	defer store.Close()

	seeds := script.Seeds()
	if err := store.ReseedScripts(seeds); err != nil {
		logger.Fatal("reseeding scripts failed", zap.Error(err))
	}

	fmt.Printf("✅ Rulebook reseeded with %d scripts.\n", len(seeds))
}
