package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/localmart/storefront/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|status> [dir]")
	}

	dir := "migrations"
	if len(os.Args) > 2 {
		dir = os.Args[2]
	}

	cfg, err := config.Load("storefront-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	files, err := migrationFiles(dir)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, pool, files)
	case "status":
		for _, f := range files {
			fmt.Println(f)
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// migrationFiles returns the .sql files of dir in lexical order. Each
// file is idempotent, so re-running "up" is safe.
func migrationFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool, files []string) {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		_, err = pool.Exec(ctx, string(data))
		if err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}
