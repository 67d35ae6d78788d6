package main

// Usage:
//   migrate [-timeout 2m] [up|down|redo|reset|status|version|up-to N|down-to N]

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"gradesync/internal/shared/config"
	"gradesync/internal/shared/storage/db"
)

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "overall migration deadline")
	flag.Parse()

	command := "up"
	var args []string
	if flag.NArg() > 0 {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		log.Printf("connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	log.Printf("running migrate %s env=%s", command, cfg.Env)
	if err := db.Migrate(ctx, sqlDB, command, args...); err != nil {
		log.Printf("migrate %s: %v", command, err)
		os.Exit(1)
	}
}
