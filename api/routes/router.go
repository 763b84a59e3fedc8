package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geniustaku/docuflow-backend/api/controllers"
	"github.com/geniustaku/docuflow-backend/api/middleware"
	"github.com/geniustaku/docuflow-backend/pkg/config"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
	"github.com/geniustaku/docuflow-backend/pkg/metrics"
)

type dbPinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Companies controllers.CompanyService
	Plans     controllers.PlanService
	Invoices  controllers.InvoiceService
	Payments  controllers.PaymentService
	Webhooks  controllers.WebhookService
	Audit     controllers.AuditService
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	db dbPinger,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, db))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// gateway deliveries authenticate with the HMAC signature, not a token
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/paystack", controllers.PaystackWebhook(svcs.Webhooks, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireActorType(string(enums.ActorTypeStaff), logg),
		)

		r.Route("/companies", func(r chi.Router) {
			r.Post("/", controllers.AdminCompanyCreate(svcs.Companies, logg))
			r.Get("/", controllers.AdminCompanyList(svcs.Companies, logg))
			r.Get("/{id}", controllers.AdminCompanyGet(svcs.Companies, logg))
			r.Patch("/{id}", controllers.AdminCompanyUpdate(svcs.Companies, logg))
			r.Delete("/{id}", controllers.AdminCompanyDeactivate(svcs.Companies, logg))
		})

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", controllers.AdminPlanCreate(svcs.Plans, logg))
			r.Get("/", controllers.AdminPlanList(svcs.Plans, logg))
			r.Get("/{id}", controllers.AdminPlanGet(svcs.Plans, logg))
			r.Patch("/{id}", controllers.AdminPlanUpdate(svcs.Plans, logg))
			r.Delete("/{id}", controllers.AdminPlanDelete(svcs.Plans, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", controllers.AdminInvoiceCreate(svcs.Invoices, logg))
			r.Get("/", controllers.AdminInvoiceList(svcs.Invoices, logg))
			r.Get("/{id}", controllers.AdminInvoiceGet(svcs.Invoices, logg))
			r.Patch("/{id}", controllers.AdminInvoiceUpdate(svcs.Invoices, logg))
			r.Delete("/{id}", controllers.AdminInvoiceCancel(svcs.Invoices, logg))
		})

		r.Get("/audit/{entityType}/{entityID}", controllers.AdminAuditList(svcs.Audit, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireActorType(string(enums.ActorTypeTenant), logg),
			middleware.RequireCompanyScope(logg),
		)

		r.Get("/invoices", controllers.TenantInvoiceList(svcs.Invoices, logg))
		r.Get("/invoices/{id}", controllers.TenantInvoiceGet(svcs.Invoices, logg))

		r.Route("/billing/payments", func(r chi.Router) {
			r.Post("/initialize", controllers.TenantPaymentInitialize(svcs.Payments, logg))
			r.Post("/verify", controllers.TenantPaymentVerify(svcs.Payments, logg))
		})
	})

	return r
}
