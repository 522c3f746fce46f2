package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abacus/ledger/internal/domain/ledger"
	"github.com/abacus/ledger/internal/infrastructure/config"
	"github.com/abacus/ledger/internal/infrastructure/logger"
	"github.com/abacus/ledger/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err), zap.String("path", cfg.Database.Path))
	}
	defer func() {
		_ = db.Close()
	}()

	switch command {
	case "up":
		if err := persistence.Migrate(db.DB); err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
		log.Info("Schema is up to date", zap.String("path", cfg.Database.Path))

	case "status":
		for _, section := range ledger.Sections() {
			info := ledger.InfoFor(section)
			for _, table := range []string{info.NodeTable, info.PathTable, info.TransTable} {
				var count int64
				err := db.DB.Raw(
					"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table,
				).Scan(&count).Error
				if err != nil {
					log.Fatal("Status check failed", zap.Error(err))
				}
				state := "missing"
				if count > 0 {
					state = "present"
				}
				fmt.Printf("%-28s %s\n", table, state)
			}
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: migrate [flags] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up      Create the per-section ledger tables")
	fmt.Println("  status  Show which tables exist")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
