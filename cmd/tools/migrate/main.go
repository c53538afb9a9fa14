package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"

	"github.com/faiznutes/Tumbas-sub001/internal/config"
	"github.com/faiznutes/Tumbas-sub001/internal/db"
)

func main() {
	var (
		direction = flag.String("direction", "up", "migration direction: up, down or version")
		steps     = flag.Int("steps", 0, "number of steps to apply; 0 means all")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	m, err := db.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open migrator: %v", err)
	}
	defer func() {
		if _, cerr := m.Close(); cerr != nil {
			log.Printf("close migrator: %v", cerr)
		}
	}()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			if errors.Is(verr, migrate.ErrNilVersion) {
				fmt.Println("no migrations applied")
				return
			}
			log.Fatalf("read version: %v", verr)
		}
		fmt.Printf("version=%d dirty=%v\n", version, dirty)
		return
	default:
		log.Fatalf("unknown direction %q", *direction)
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("schema already up to date")
			return
		}
		log.Fatalf("run migrations: %v", err)
	}
	fmt.Println("migrations applied")
}
