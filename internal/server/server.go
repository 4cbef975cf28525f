package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bykirken/bykirken/internal/calsync"
	"github.com/bykirken/bykirken/internal/config"
	"github.com/bykirken/bykirken/internal/email"
	"github.com/bykirken/bykirken/internal/handler"
	"github.com/bykirken/bykirken/internal/media"
	"github.com/bykirken/bykirken/internal/middleware"
	"github.com/bykirken/bykirken/internal/payments"
	"github.com/bykirken/bykirken/internal/push"
	"github.com/bykirken/bykirken/internal/store"
	ws "github.com/bykirken/bykirken/internal/websocket"
)

type Server struct {
	db  *sql.DB
	cfg *config.Config
	hub *ws.Hub

	syncH     *handler.SyncHandler
	eventH    *handler.EventHandler
	postH     *handler.PostHandler
	sermonH   *handler.SermonHandler
	podcastH  *handler.PodcastHandler
	pageH     *handler.PageHandler
	categoryH *handler.CategoryHandler
	productH  *handler.ProductHandler
	cartH     *handler.CartHandler
	orderH    *handler.OrderHandler
	authH     *handler.AuthHandler
	mediaH    *handler.MediaHandler
	pushH     *handler.PushHandler

	sessionStore   *store.SessionStore
	userStore      *store.UserStore
	magicLinkStore *store.MagicLinkStore
	pushStore      *store.PushStore
	rateLimiter    *middleware.RateLimiter

	syncJob  *calsync.Job
	reminder *push.Reminder
	logger   *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	eventStore := store.NewEventStore(db)
	postStore := store.NewPostStore(db)
	sermonStore := store.NewSermonStore(db)
	pageStore := store.NewPageStore(db)
	categoryStore := store.NewCategoryStore(db)
	productStore := store.NewProductStore(db)
	cartStore := store.NewCartStore(db)
	orderStore := store.NewOrderStore(db)

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	magicLinkStore := store.NewMagicLinkStore(db)
	pushStore := store.NewPushStore(db)

	emailClient := email.NewClient(cfg.Email.ServerToken, cfg.Email.FromEmail)
	mediaStore := media.NewStore(media.Config{
		Endpoint:  cfg.S3.Endpoint,
		Bucket:    cfg.S3.Bucket,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		PublicURL: cfg.S3.PublicBaseURL,
	})
	paymentsClient := payments.NewClient(payments.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
	})

	syncJob := calsync.NewJob(calsync.Config{
		FeedURL:             cfg.FeedURL,
		SuppressedSummaries: cfg.SuppressedSummaries,
	}, eventStore, logger)

	pushSvc := push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, "")
	reminder := push.NewReminder(eventStore, pushStore, pushSvc, cfg.BaseURL, 0, logger.With("component", "reminder"))

	secure := cfg.Production()

	return &Server{
		db:  db,
		cfg: cfg,
		hub: hub,

		syncH:     handler.NewSyncHandler(syncJob, hub, cfg.CronSecret, cfg.Production(), logger.With("component", "sync")),
		eventH:    handler.NewEventHandler(eventStore, logger.With("component", "event")),
		postH:     handler.NewPostHandler(postStore, logger.With("component", "post")),
		sermonH:   handler.NewSermonHandler(sermonStore, logger.With("component", "sermon")),
		podcastH:  handler.NewPodcastHandler(sermonStore, mediaStore, cfg.BaseURL, logger.With("component", "podcast")),
		pageH:     handler.NewPageHandler(pageStore, logger.With("component", "page")),
		categoryH: handler.NewCategoryHandler(categoryStore, logger.With("component", "category")),
		productH:  handler.NewProductHandler(productStore, categoryStore, logger.With("component", "product")),
		cartH:     handler.NewCartHandler(cartStore, productStore, secure, logger.With("component", "cart")),
		orderH:    handler.NewOrderHandler(orderStore, cartStore, productStore, paymentsClient, emailClient, logger.With("component", "order")),
		authH:     handler.NewAuthHandler(userStore, sessionStore, magicLinkStore, emailClient, secure, logger.With("component", "auth")),
		mediaH:    handler.NewMediaHandler(mediaStore, logger.With("component", "media")),
		pushH:     handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push")),

		sessionStore:   sessionStore,
		userStore:      userStore,
		magicLinkStore: magicLinkStore,
		pushStore:      pushStore,
		rateLimiter:    middleware.NewRateLimiter(),

		syncJob:  syncJob,
		reminder: reminder,
		logger:   logger,
	}
}

// SyncJob returns the calendar sync job for the cron scheduler.
func (s *Server) SyncJob() *calsync.Job {
	return s.syncJob
}

// Reminder returns the push reminder for the cron scheduler.
func (s *Server) Reminder() *push.Reminder {
	return s.reminder
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// MagicLinkStore returns the magic link store for cleanup tasks.
func (s *Server) MagicLinkStore() *store.MagicLinkStore {
	return s.magicLinkStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /api/sync", s.syncH.Trigger)

	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/code", s.rateLimitedHandler(s.authH.RequestCode))
	outerMux.HandleFunc("POST /api/auth/verify", s.rateLimitedHandler(s.authH.VerifyCode))
	outerMux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	outerMux.HandleFunc("GET /api/events", s.eventH.ListUpcoming)
	outerMux.HandleFunc("GET /api/events/range", s.eventH.ListRange)
	outerMux.HandleFunc("GET /api/events/{slug}", s.eventH.GetBySlug)

	outerMux.HandleFunc("GET /api/posts", s.postH.ListPublished)
	outerMux.HandleFunc("GET /api/posts/{slug}", s.postH.GetBySlug)

	outerMux.HandleFunc("GET /api/sermons", s.sermonH.ListPublished)
	outerMux.HandleFunc("GET /api/sermons/{slug}", s.sermonH.GetBySlug)
	outerMux.HandleFunc("GET /podcast.xml", s.podcastH.Feed)

	outerMux.HandleFunc("GET /api/content/pages", s.pageH.ListPublished)
	outerMux.HandleFunc("GET /api/content/pages/{slug}", s.pageH.GetBySlug)

	outerMux.HandleFunc("GET /api/categories", s.categoryH.List)
	outerMux.HandleFunc("GET /api/products", s.productH.List)
	outerMux.HandleFunc("GET /api/products/{id}", s.productH.Get)

	outerMux.HandleFunc("GET /api/cart", s.cartH.Get)
	outerMux.HandleFunc("POST /api/cart/items", s.cartH.AddItem)
	outerMux.HandleFunc("PUT /api/cart/items/{id}", s.cartH.SetItemQty)

	outerMux.HandleFunc("POST /api/checkout", s.orderH.Checkout)
	outerMux.HandleFunc("GET /api/orders", s.orderH.ListByCustomer)
	outerMux.HandleFunc("GET /api/orders/{id}", s.orderH.Get)
	outerMux.HandleFunc("POST /api/webhooks/stripe", s.orderH.StripeWebhook)

	outerMux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	outerMux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	outerMux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	// Authenticated routes
	authMux := http.NewServeMux()
	authMux.HandleFunc("GET /api/auth/me", s.authH.Me)
	authMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Admin routes — editor role required, content mutations broadcast to
	// connected admin clients
	adminMux := http.NewServeMux()
	s.registerAdminRoutes(adminMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	authMux.Handle("/api/admin/", middleware.RequireEditor(s.broadcastMutations(adminMux)))
	outerMux.Handle("/api/auth/me", authMiddleware(authMux))
	outerMux.Handle("/ws", authMiddleware(authMux))
	outerMux.Handle("/api/admin/", authMiddleware(authMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/events", s.eventH.List)
	mux.HandleFunc("POST /api/admin/events", s.eventH.Create)
	mux.HandleFunc("GET /api/admin/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/admin/events/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/admin/events/{id}", s.eventH.Delete)

	mux.HandleFunc("GET /api/admin/posts", s.postH.List)
	mux.HandleFunc("POST /api/admin/posts", s.postH.Create)
	mux.HandleFunc("PUT /api/admin/posts/{id}", s.postH.Update)
	mux.HandleFunc("DELETE /api/admin/posts/{id}", s.postH.Delete)

	mux.HandleFunc("GET /api/admin/sermons", s.sermonH.List)
	mux.HandleFunc("POST /api/admin/sermons", s.sermonH.Create)
	mux.HandleFunc("PUT /api/admin/sermons/{id}", s.sermonH.Update)
	mux.HandleFunc("DELETE /api/admin/sermons/{id}", s.sermonH.Delete)

	mux.HandleFunc("GET /api/admin/pages", s.pageH.List)
	mux.HandleFunc("POST /api/admin/pages", s.pageH.Create)
	mux.HandleFunc("PUT /api/admin/pages/{id}", s.pageH.Update)
	mux.HandleFunc("DELETE /api/admin/pages/{id}", s.pageH.Delete)

	mux.HandleFunc("POST /api/admin/categories", s.categoryH.Create)
	mux.HandleFunc("DELETE /api/admin/categories/{id}", s.categoryH.Delete)

	mux.HandleFunc("POST /api/admin/products", s.productH.Create)
	mux.HandleFunc("PUT /api/admin/products/{id}", s.productH.Update)
	mux.HandleFunc("DELETE /api/admin/products/{id}", s.productH.Delete)
	mux.HandleFunc("POST /api/admin/variants/{id}/stock", s.productH.AdjustStock)

	mux.HandleFunc("POST /api/admin/media", s.mediaH.Upload)
	mux.HandleFunc("DELETE /api/admin/media", s.mediaH.Delete)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

type mutationRecorder struct {
	http.ResponseWriter
	status int
}

func (r *mutationRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// broadcastMutations notifies websocket clients after successful admin
// mutations so open admin views refresh.
func (s *Server) broadcastMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &mutationRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if r.Method == http.MethodGet || rec.status >= 400 {
			return
		}

		entity, ref := adminEntity(r.URL.Path)
		if entity == "" {
			return
		}
		action := map[string]string{
			http.MethodPost:   "created",
			http.MethodPut:    "updated",
			http.MethodDelete: "deleted",
		}[r.Method]
		s.hub.Broadcast(ws.NewMessage(entity, action, ref, nil))
	})
}

// adminEntity splits an admin path like /api/admin/events/3 into the
// singular entity name and the trailing resource id.
func adminEntity(path string) (string, string) {
	rest := strings.TrimPrefix(path, "/api/admin/")
	if rest == path {
		return "", ""
	}
	entity, ref, _ := strings.Cut(rest, "/")
	ref, _, _ = strings.Cut(ref, "/")
	return strings.TrimSuffix(entity, "s"), ref
}
