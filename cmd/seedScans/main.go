package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"scanlog/frontend/records"
	"scanlog/infrastructure/audit"
	"scanlog/infrastructure/sqlite"
)

const seedClientID = "seed"

func main() {
	count := flag.Int("count", 25, "number of demo scans to create")
	days := flag.Int("days", 14, "spread scans over this many past days")
	flag.Parse()

	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		log.Fatalf("resolve migrations dir: %v", err)
	}

	defaultDBPath := filepath.Join(filepath.Dir(filepath.Dir(filepath.Dir(migrationsDir))), "scanlog.db")
	dbPath := getenv("SQLITE_PATH", defaultDBPath)

	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := sqlite.ApplyMigrations(context.Background(), db, migrationsDir); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	created, dup, err := seedScans(context.Background(), db, audit.NewService(), *count, *days, time.Now())
	if err != nil {
		log.Fatalf("seed scans: %v", err)
	}
	fmt.Printf("seeded %d scans into %s (%d already present)\n", created, dbPath, dup)
}

// seedScans records count demo barcodes spread back over days. Rerunning is
// safe: existing barcodes come back as duplicates.
func seedScans(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, count, days int, now time.Time) (created, duplicates int, err error) {
	if days < 1 {
		days = 1
	}
	prefixes := []string{"PAL", "BOX", "SKU"}
	for i := 0; i < count; i++ {
		barcode := fmt.Sprintf("%s-%05d", prefixes[i%len(prefixes)], i+1)
		at := now.Add(-time.Duration(i%days) * 24 * time.Hour).Add(-time.Duration(i) * time.Minute)
		in := records.CreateScanInput{Barcode: barcode}
		if i%5 == 0 {
			note := "demo note " + barcode
			in.Notes = &note
		}
		res, err := records.CreateScan(ctx, db, auditSvc, seedClientID, in, at)
		if err != nil {
			return created, duplicates, fmt.Errorf("create %s: %w", barcode, err)
		}
		if res.IsDuplicate {
			duplicates++
			continue
		}
		created++
	}
	return created, duplicates, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		filepath.Join("infrastructure", "sqlite", "migrations"),
		filepath.Join("..", "..", "infrastructure", "sqlite", "migrations"),
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "infrastructure", "sqlite", "migrations"))
	}

	tried := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		tried = append(tried, absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("migrations dir not found; tried: %s", strings.Join(tried, ", "))
}
