package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kusina-pos/api/internal/config"
	"github.com/kusina-pos/api/internal/database"
	"github.com/kusina-pos/api/internal/enum"
	"github.com/kusina-pos/api/internal/handler"
	mw "github.com/kusina-pos/api/internal/middleware"
	"github.com/kusina-pos/api/internal/mq"
	"github.com/kusina-pos/api/internal/service"
	"github.com/kusina-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, branch scoping, and role-based middleware as needed.
// The mq client may be nil; settlement events then stay on the websocket only.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, broker *mq.Client) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/branches/{bid}/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// The handler's Broadcaster and EventPublisher fields are interfaces; a
	// typed nil *mq.Client or *ws.Hub must not end up inside a non-nil
	// interface value.
	var publisher handler.EventPublisher
	if broker != nil {
		publisher = broker
	}
	var broadcaster handler.Broadcaster
	if hub != nil {
		broadcaster = hub
	}

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		r.Route("/branches/{bid}", func(r chi.Router) {
			r.Use(mw.RequireBranch)

			settlementService := service.NewSettlementService(pool, func(db database.DBTX) service.SettlementStore {
				return database.New(db)
			})
			lifecycleService := service.NewLifecycleService(pool, func(db database.DBTX) service.LifecycleStore {
				return database.New(db)
			})
			orderHandler := handler.NewOrderHandler(settlementService, lifecycleService, queries, broadcaster, publisher)
			r.Route("/orders", func(r chi.Router) {
				orderHandler.RegisterRoutes(r)

				// Voids and refunds rewrite money that already hit the
				// ledger; floor staff cannot issue them.
				r.Group(func(r chi.Router) {
					r.Use(mw.RequireRole(enum.RoleManager, enum.RoleOwner))
					orderHandler.RegisterManagerRoutes(r)
				})
			})

			drawerService := service.NewDrawerService(pool, func(db database.DBTX) service.DrawerStore {
				return database.New(db)
			})
			drawerHandler := handler.NewDrawerHandler(drawerService, broadcaster)
			r.Route("/drawer", drawerHandler.RegisterRoutes)

			reportHandler := handler.NewReportHandler(queries)
			r.Route("/reports", func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleManager, enum.RoleOwner))
				reportHandler.RegisterRoutes(r)
			})
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
