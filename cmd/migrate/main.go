package main

import (
	"database/sql"
	"os"
	"strconv"

	_ "github.com/jackc/pgx/v4/stdlib"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/peterssg513/willowandwater-sub001/internal/config"
	"github.com/peterssg513/willowandwater-sub001/internal/utils"
)

const (
	migrationDialect = "postgres"
	defaultDir       = "db/migrations"
)

// Usage: migrate [up | down [steps]]
func main() {
	utils.InitLogger(config.AppName + "-migrate")

	// DB_URL alone is enough; otherwise fall back to the full config so
	// Bitwarden-held credentials work too.
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		cfg := config.LoadConfig()
		dbURL = cfg.DBUrl
	}

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = defaultDir
	}

	direction := migrate.Up
	steps := 0
	if len(os.Args) > 1 && os.Args[1] == "down" {
		direction = migrate.Down
		steps = 1
		if len(os.Args) > 2 {
			n, err := strconv.Atoi(os.Args[2])
			if err != nil || n < 1 {
				utils.Logger.Fatalf("Invalid step count %q", os.Args[2])
			}
			steps = n
		}
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to open database for migrations")
	}
	defer db.Close()

	source := &migrate.FileMigrationSource{Dir: dir}
	n, err := migrate.ExecMax(db, migrationDialect, source, direction, steps)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to run migrations")
	}

	if n == 0 {
		utils.Logger.Info("No migrations to apply")
	} else {
		utils.Logger.Infof("Applied %d migrations from %s", n, dir)
	}
}
