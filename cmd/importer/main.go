package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/importer"
	"storefront/internal/repository/category"
	"storefront/internal/repository/product"
	"storefront/internal/repository/website"
)

func main() {
	var (
		filePath   string
		websiteKey string
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV")
	flag.StringVar(&websiteKey, "website", "", "Website key to import into")
	flag.Parse()

	if filePath == "" || websiteKey == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stderr, "[importer] ", log.LstdFlags|log.LUTC)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	sites := website.NewPostgres(pool)
	site, err := sites.GetByKey(ctx, websiteKey)
	if errors.Is(err, domain.ErrNotFound) {
		site, err = sites.Upsert(ctx, domain.Website{Key: websiteKey, Name: websiteKey})
	}
	if err != nil {
		logger.Fatalf("ensure website %q: %v", websiteKey, err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, logger), category.NewPostgres(pool), site.ID, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed: %v", err)
	}

	fmt.Printf("Imported %d products into website %s in %s\n", count, websiteKey, time.Since(start).Truncate(time.Millisecond))
}
