package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/events"
	"storefront/internal/httpserver"
	"storefront/internal/page"
	"storefront/internal/payment"
	cartrepo "storefront/internal/repository/cart"
	categoryrepo "storefront/internal/repository/category"
	customerrepo "storefront/internal/repository/customer"
	orderrepo "storefront/internal/repository/order"
	pmrepo "storefront/internal/repository/paymentmethod"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	websiterepo "storefront/internal/repository/website"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	pmsvc "storefront/internal/service/paymentmethod"
	productsvc "storefront/internal/service/product"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	websiteRepo := websiterepo.NewPostgres(dbpool)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	categoryService := categorysvc.New(categoryrepo.NewPostgres(dbpool))
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), productRepo)
	customerService := customersvc.New(customerrepo.NewPostgres(dbpool, logger), tokenrepo.NewPostgres(dbpool))
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	orderService := ordersvc.New(orderRepo)
	methodService := pmsvc.New(pmrepo.NewPostgres(dbpool))

	readyChecks := map[string]httpserver.ReadyCheck{}
	anonStore := anonymoussvc.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatalf("connect to redis: %v", err)
		}
		anonStore = anonymoussvc.NewRedisStore(rdb, "storefront")
		readyChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Printf("guest sessions stored in redis at %s", cfg.RedisAddr)
	}
	anonymousService := anonymoussvc.New(anonStore)

	outbox := events.NewOutbox(dbpool, logger)
	if cfg.RabbitURL != "" {
		publisher, err := events.NewRabbitPublisher(cfg.RabbitURL, cfg.OrdersExchange)
		if err != nil {
			logger.Fatalf("connect to rabbitmq: %v", err)
		}
		defer publisher.Close()
		readyChecks["rabbitmq"] = publisher.Ping
		dispatcher := events.NewDispatcher(dbpool, publisher, cfg.OutboxInterval, cfg.OutboxBatchSize, logger)
		go dispatcher.Run(ctx)
		logger.Printf("order events published to exchange %s", cfg.OrdersExchange)
	}

	paymentClient := &http.Client{Timeout: 30 * time.Second}
	loader := payment.NewLoader(logger)
	checkoutService := checkout.New(checkout.Deps{
		Carts:     cartService,
		Prices:    productService,
		Methods:   methodService,
		Orders:    orderRepo,
		Initiator: payment.NewInitiator(cfg.CreatePaymentURL, cfg.AnonKey, cfg.Currency, paymentClient),
		Verifier:  payment.NewVerifier(cfg.VerifyPaymentURL, cfg.AnonKey, paymentClient),
		Gateways:  payment.DefaultGateways(loader, methodService),
		Notifier:  outbox,
		Currency:  cfg.Currency,
		Logger:    logger,
	})
	pages := page.NewHub(logger, cfg.AllowedOrigins)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		WebsiteRepo:      websiteRepo,
		ProductSvc:       productService,
		CategorySvc:      categoryService,
		CustomerSvc:      customerService,
		AnonymousSvc:     anonymousService,
		CartSvc:          cartService,
		PaymentMethodSvc: methodService,
		OrderSvc:         orderService,
		CheckoutSvc:      checkoutService,
		Pages:            pages,
		AllowedOrigins:   cfg.AllowedOrigins,
		CheckoutTimeout:  cfg.CheckoutTimeout,
		ReadyChecks:      readyChecks,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	pages.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
	stop()
}
