package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rookpress/bookstall/internal/auth"
	"github.com/rookpress/bookstall/internal/checkout"
	"github.com/rookpress/bookstall/internal/handler"
	"github.com/rookpress/bookstall/internal/middleware"
	"github.com/rookpress/bookstall/internal/platform"
	"github.com/rookpress/bookstall/internal/purchase"
	"github.com/rookpress/bookstall/internal/store"
)

type Config struct {
	BaseURL               string
	Platform              platform.Config
	PlatformReferrerHosts []string
	Purchase              purchase.Config
	CookieSecure          bool
}

type Server struct {
	db           *sql.DB
	sessionStore *store.SessionStore
	authService  *auth.Service
	tokens       handler.TokenSource
	authH        *handler.AuthHandler
	purchaseH    *handler.PurchaseHandler
	checkoutH    *handler.CheckoutHandler
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	authService := auth.NewService(userStore, sessionStore)

	platformClient := platform.NewClient(cfg.Platform)
	purchaseService := purchase.NewService(platformClient, cfg.Purchase, logger.With("component", "purchase"))
	initiator := checkout.NewInitiator(platformClient, cfg.Platform.BaseURL, cfg.PlatformReferrerHosts)

	tokens := handler.NewCookieTokenSource(cfg.CookieSecure)

	return &Server{
		db:           db,
		sessionStore: sessionStore,
		authService:  authService,
		tokens:       tokens,
		authH:        handler.NewAuthHandler(authService, tokens, logger.With("component", "auth")),
		purchaseH:    handler.NewPurchaseHandler(purchaseService, tokens, logger.With("component", "purchase")),
		checkoutH:    handler.NewCheckoutHandler(initiator, cfg.BaseURL, logger.With("component", "checkout")),
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheck)

	// Credential endpoints, rate-limited per client
	mux.HandleFunc("POST /api/signup", s.rateLimited(s.authH.SignUp))
	mux.HandleFunc("POST /api/signin", s.rateLimited(s.authH.SignIn))
	mux.HandleFunc("POST /api/signout", s.authH.SignOut)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Catalog and checkout
	mux.HandleFunc("GET /api/products", s.purchaseH.Products)
	mux.HandleFunc("POST /api/checkout", s.checkoutH.Start)

	// Entitlements: verify and download accept either proof mechanism, so
	// they stay public; the purchase listing needs a signed-in user.
	mux.HandleFunc("GET /api/purchases/verify", s.purchaseH.Verify)
	mux.HandleFunc("GET /api/download", s.purchaseH.Download)
	mux.Handle("GET /api/purchases", middleware.RequireAuth(http.HandlerFunc(s.purchaseH.List)))

	var h http.Handler = mux
	h = middleware.ResolveUser(s.authService, s.tokens)(h)
	h = middleware.RequestLogger(s.logger)(h)
	h = middleware.RequestID(h)
	return h
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
