package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/geniustaku/docuflow-backend/api/routes"
	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/internal/companies"
	"github.com/geniustaku/docuflow-backend/internal/invoices"
	"github.com/geniustaku/docuflow-backend/internal/payments"
	"github.com/geniustaku/docuflow-backend/internal/plans"
	paystackwebhook "github.com/geniustaku/docuflow-backend/internal/webhooks/paystack"
	"github.com/geniustaku/docuflow-backend/pkg/config"
	"github.com/geniustaku/docuflow-backend/pkg/db"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
	"github.com/geniustaku/docuflow-backend/pkg/metrics"
	"github.com/geniustaku/docuflow-backend/pkg/migrate"
	"github.com/geniustaku/docuflow-backend/pkg/paystack"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	paystackClient, err := paystack.NewClient(context.Background(), cfg.Paystack, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}

	auditService, err := audit.NewService(audit.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	companyRepo := companies.NewRepository(dbClient.DB())
	invoiceRepo := invoices.NewRepository(dbClient.DB())

	companyService, err := companies.NewService(companies.ServiceParams{
		Repo:        companyRepo,
		Audit:       auditService,
		TxRunner:    dbClient,
		SecurityCfg: cfg.Security,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create company service", err)
		os.Exit(1)
	}

	planService, err := plans.NewService(plans.ServiceParams{
		Repo:      plans.NewRepository(dbClient.DB()),
		Companies: companyRepo,
		Audit:     auditService,
		TxRunner:  dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create plan service", err)
		os.Exit(1)
	}

	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		Repo:       invoiceRepo,
		Companies:  companyRepo,
		Audit:      auditService,
		TxRunner:   dbClient,
		BillingCfg: cfg.Billing,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:        payments.NewRepository(dbClient.DB()),
		Invoices:    invoiceRepo,
		Companies:   companyRepo,
		Gateway:     paystackClient,
		Audit:       auditService,
		TxRunner:    dbClient,
		AppCfg:      cfg.App,
		PaystackCfg: cfg.Paystack,
		BillingCfg:  cfg.Billing,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	webhookService, err := paystackwebhook.NewService(paystackwebhook.ServiceParams{
		Payments:      paymentService,
		SigningSecret: cfg.Paystack.SigningSecret(),
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, httpMetrics, registry, routes.Services{
			Companies: companyService,
			Plans:     planService,
			Invoices:  invoiceService,
			Payments:  paymentService,
			Webhooks:  webhookService,
			Audit:     auditService,
		}),
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			_ = dbClient.Close()
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := multierr.Combine(server.Shutdown(shutdownCtx), dbClient.Close()); err != nil {
		logg.Error(ctx, "shutdown finished with errors", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
