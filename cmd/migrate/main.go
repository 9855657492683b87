// Command migrate applies or repairs the database schema.
//
//	migrate up
//	migrate force <version>
//	migrate version
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"barbershop-booking/internal/store"
)

func main() {
	_ = godotenv.Load()
	dbURL := flag.String("database", os.Getenv("DATABASE_URL"), "postgres connection URL")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [-database url] up | force <version> | version")
		flag.PrintDefaults()
	}
	flag.Parse()
	if *dbURL == "" || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	m, err := store.NewMigrator(*dbURL)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	defer m.Close()

	switch flag.Arg(0) {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("up: %v", err)
		}
		log.Println("schema up to date")
	case "force":
		v, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			log.Fatalf("force: bad version %q", flag.Arg(1))
		}
		if err := m.Force(v); err != nil {
			log.Fatalf("force: %v", err)
		}
		log.Printf("forced version %d", v)
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("no migrations applied")
			return
		}
		if err != nil {
			log.Fatalf("version: %v", err)
		}
		log.Printf("version %d (dirty=%v)", v, dirty)
	default:
		flag.Usage()
		os.Exit(2)
	}
}
