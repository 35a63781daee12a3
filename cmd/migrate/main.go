// Command migrate runs arkival's schema migrations against the configured
// database. Subcommands mirror golang-migrate: up, down, steps N, force N,
// version.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"arkival/internal/config"
)

const sourceURL = "file://db/migrations"

func main() {
	log.SetFlags(0)
	log.SetPrefix("migrate: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	m, err := migrate.New(sourceURL, cfg.DB.DSN())
	if err != nil {
		log.Fatalf("opening migration source: %v", err)
	}
	defer m.Close()

	if err := run(m, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func run(m *migrate.Migrate, cmd string, args []string) error {
	switch cmd {
	case "up":
		if err := m.Up(); errors.Is(err, migrate.ErrNoChange) {
			log.Println("schema already current")
		} else if err != nil {
			return fmt.Errorf("up: %w", err)
		} else {
			log.Println("schema migrated up")
		}

	case "down":
		if err := m.Down(); errors.Is(err, migrate.ErrNoChange) {
			log.Println("nothing to revert")
		} else if err != nil {
			return fmt.Errorf("down: %w", err)
		} else {
			log.Println("schema reverted")
		}

	case "steps":
		n, err := intArg(args, "steps")
		if err != nil {
			return err
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("steps %d: %w", n, err)
		}
		log.Printf("applied %d step(s)", n)

	case "force":
		n, err := intArg(args, "force")
		if err != nil {
			return err
		}
		if err := m.Force(n); err != nil {
			return fmt.Errorf("force %d: %w", n, err)
		}
		log.Printf("forced version %d, dirty flag cleared", n)

	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("no migrations applied yet")
		} else if err != nil {
			return fmt.Errorf("version: %w", err)
		} else {
			log.Printf("version %d (dirty: %v)", v, dirty)
		}

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func intArg(args []string, cmd string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%s requires a number", cmd)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", cmd, args[0])
	}
	return n, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `arkival schema migration runner

usage: migrate <command>

  up         apply all pending migrations
  down       revert all migrations
  steps N    apply N migrations (negative N reverts)
  force N    set the schema version and clear the dirty flag
  version    print the current schema version`)
}
