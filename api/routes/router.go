package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storelinkhq/storelink-backend/api/controllers"
	"github.com/storelinkhq/storelink-backend/api/middleware"
	checkoutsvc "github.com/storelinkhq/storelink-backend/internal/checkout"
	"github.com/storelinkhq/storelink-backend/internal/leads"
	product "github.com/storelinkhq/storelink-backend/internal/products"
	"github.com/storelinkhq/storelink-backend/internal/sales"
	"github.com/storelinkhq/storelink-backend/internal/stores"
	"github.com/storelinkhq/storelink-backend/pkg/config"
	"github.com/storelinkhq/storelink-backend/pkg/db"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
	"github.com/storelinkhq/storelink-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsRegistry *prometheus.Registry,
	storeService stores.Service,
	productService product.Service,
	salesService sales.Service,
	leadService leads.Service,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// a typed nil *redis.Client must become a nil interface here, or
	// the middleware nil checks never fire and guarded routes blow up
	// on the dead client
	var (
		idemStore redis.IdempotencyStore
		limiter   middleware.RateLimitCounter
		redisP    redis.Pinger
	)
	if redisClient != nil {
		idemStore = redisClient
		limiter = redisClient
		redisP = redisClient
	}

	checkoutPolicy := middleware.NewCheckoutRateLimitPolicy(
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
		cfg.RateLimit.CheckoutPhoneLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	// public storefront surface, no auth
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/directory", controllers.StoreDirectory(storeService, logg))
		r.Route("/storefront/{storeSlug}", func(r chi.Router) {
			r.Get("/", controllers.StorefrontStore(storeService, logg))
			r.Get("/products", controllers.StorefrontProducts(storeService, productService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CheckoutRateLimit(checkoutPolicy, limiter, logg))
			r.Use(middleware.Idempotency(idemStore, cfg.Checkout.IdempotencyTTL, logg))
			r.Post("/checkout/{storeSlug}", controllers.CheckoutSubmit(checkoutService, logg))
		})
	})

	if !cfg.App.IsProd() {
		r.Post("/api/dev/token", controllers.DevMintToken(cfg.JWT, logg))
	}

	// owner dashboard surface
	r.Route("/api/v1/stores", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, cfg.Checkout.IdempotencyTTL, logg))

		r.Post("/", controllers.StoreCreate(storeService, logg))
		r.Get("/", controllers.StoreList(storeService, logg))

		r.Route("/{storeId}", func(r chi.Router) {
			r.Get("/", controllers.StoreGet(storeService, logg))
			r.Patch("/", controllers.StoreUpdate(storeService, logg))

			r.Get("/products", controllers.ProductList(productService, logg))
			r.Post("/products", controllers.ProductCreate(productService, logg))

			r.Get("/sales", controllers.SalesList(salesService, logg))
			r.Post("/sales", controllers.SaleLog(salesService, logg))

			r.Get("/leads", controllers.LeadList(leadService, logg))
			r.Post("/leads", controllers.LeadCreate(leadService, logg))

			r.Get("/stages", controllers.StageList(leadService, logg))
			r.Post("/stages", controllers.StageCreate(leadService, logg))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/api/v1/products/{productId}", func(r chi.Router) {
			r.Get("/", controllers.ProductGet(productService, logg))
			r.Patch("/", controllers.ProductUpdate(productService, logg))
			r.Delete("/", controllers.ProductDelete(productService, logg))
		})

		r.Route("/api/v1/sales/{saleId}", func(r chi.Router) {
			r.Get("/", controllers.SaleGet(salesService, logg))
			r.Post("/complete", controllers.SaleComplete(salesService, logg))
		})

		r.Route("/api/v1/leads/{leadId}", func(r chi.Router) {
			r.Get("/", controllers.LeadGet(leadService, logg))
			r.Patch("/", controllers.LeadUpdate(leadService, logg))
			r.Delete("/", controllers.LeadDelete(leadService, logg))
			r.Post("/stage", controllers.LeadMoveStage(leadService, logg))
		})

		r.Route("/api/v1/stages/{stageId}", func(r chi.Router) {
			r.Patch("/", controllers.StageUpdate(leadService, logg))
			r.Delete("/", controllers.StageDelete(leadService, logg))
		})
	})

	return r
}
