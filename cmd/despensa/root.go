package main

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/despensa-app/despensa/internal/repository"
)

var (
	dbPath   string
	userName string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "despensa",
	Short: "Household inventory from supermarket receipts",
	Long: `despensa keeps a household stock inventory fed by supermarket
receipts. Point it at a receipt photo and it OCRs the ticket, detects
the supermarket, and reconciles every line into the local inventory.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelInfo
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "path to the local inventory database")
	rootCmd.PersistentFlags().StringVarP(&userName, "user", "u", os.Getenv("DESPENSA_USER"), "acting user")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress")
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "despensa.db"
	}
	return filepath.Join(home, ".despensa", "despensa.db")
}

// openStore opens (creating if needed) the local SQLite inventory.
func openStore() (repository.InventoryRepository, *sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	return repository.OpenSQLite(dbPath, slog.Default())
}
