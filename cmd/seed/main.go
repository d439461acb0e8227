package main

import (
	"context"
	"flag"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	categoryrepo "storefront/internal/repository/category"
	pmrepo "storefront/internal/repository/paymentmethod"
	productrepo "storefront/internal/repository/product"
	websiterepo "storefront/internal/repository/website"
	"storefront/internal/seed"
)

func main() {
	var opts seed.Options
	flag.StringVar(&opts.WebsiteKey, "website", "demo", "Key of the demo website")
	flag.StringVar(&opts.PayPalClientID, "paypal-client-id", os.Getenv("PAYPAL_CLIENT_ID"), "Public PayPal sandbox client id")
	flag.Parse()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	repos := seed.Repos{
		Websites:       websiterepo.NewPostgres(pool),
		Products:       productrepo.NewPostgres(pool, logger),
		Categories:     categoryrepo.NewPostgres(pool),
		PaymentMethods: pmrepo.NewPostgres(pool),
	}
	if _, err := seed.Apply(ctx, repos, opts, logger); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Println("seed applied")
}
