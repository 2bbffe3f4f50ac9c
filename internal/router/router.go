package router

import (
	"net/http"
	"strings"

	"pos-till/internal/auth"
	"pos-till/internal/handler"
	"pos-till/internal/middleware"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
// Catalogue and promotion mutations require the admin role; everything else
// behind /api needs a valid operator token.
func New(
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	promoHandler *handler.PromoHandler,
	cartHandler *handler.CartHandler,
	reportHandler *handler.ReportHandler,
	authService *auth.Service,
	registry *prometheus.Registry,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/login", authHandler.Login)

	adminOnly := func(fn http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireAdmin(logger)(fn).ServeHTTP
	}

	// Product handler function
	productRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		hasCode := r.URL.Path != "/api/products" && r.URL.Path != "/api/products/"

		switch {
		case r.Method == http.MethodGet && hasCode:
			productHandler.GetByCode(w, r)
		case r.Method == http.MethodGet:
			productHandler.GetAll(w, r)
		case r.Method == http.MethodPost && !hasCode:
			adminOnly(productHandler.Create)(w, r)
		case r.Method == http.MethodPut && hasCode:
			adminOnly(productHandler.Update)(w, r)
		case r.Method == http.MethodDelete && hasCode:
			adminOnly(productHandler.Delete)(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}

	// Register product routes (both with and without trailing slash)
	mux.HandleFunc("/api/products", productRouteHandler)
	mux.HandleFunc("/api/products/", productRouteHandler)

	// Promotion handler function
	promoRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		hasCode := r.URL.Path != "/api/promotions" && r.URL.Path != "/api/promotions/"

		switch {
		case r.Method == http.MethodGet && hasCode:
			promoHandler.GetByCode(w, r)
		case r.Method == http.MethodGet:
			promoHandler.GetAll(w, r)
		case r.Method == http.MethodPost && !hasCode:
			adminOnly(promoHandler.Create)(w, r)
		case r.Method == http.MethodDelete && hasCode:
			adminOnly(promoHandler.Delete)(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}

	mux.HandleFunc("/api/promotions", promoRouteHandler)
	mux.HandleFunc("/api/promotions/", promoRouteHandler)

	// Cart handler function
	cartRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && (r.URL.Path == "/api/carts" || r.URL.Path == "/api/carts/") {
			cartHandler.Create(w, r)
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/api/carts/")
		_, action, _ := strings.Cut(rest, "/")

		switch {
		case r.Method == http.MethodPost && action == "items":
			cartHandler.AddItem(w, r)
		case r.Method == http.MethodPost && action == "promo":
			cartHandler.ApplyPromo(w, r)
		case r.Method == http.MethodPost && action == "checkout":
			cartHandler.Checkout(w, r)
		case r.Method == http.MethodGet && action == "":
			cartHandler.Get(w, r)
		case r.Method == http.MethodDelete && action == "":
			cartHandler.Delete(w, r)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}

	mux.HandleFunc("/api/carts", cartRouteHandler)
	mux.HandleFunc("/api/carts/", cartRouteHandler)

	mux.HandleFunc("/api/reports/daily", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		reportHandler.Daily(w, r)
	})

	// Apply middleware in order: Recovery -> Logging -> CORS -> JWTAuth
	var h http.Handler = mux
	h = middleware.JWTAuth(authService, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
