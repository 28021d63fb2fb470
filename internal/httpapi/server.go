package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/digkill/PhotoStudio/internal/auth"
	"github.com/digkill/PhotoStudio/internal/metrics"
	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/service"
)

type Accounts interface {
	SignUp(ctx context.Context, in service.SignUpInput, settings models.SystemSettings) (*service.Session, error)
	SignIn(ctx context.Context, email, password string) (*service.Session, error)
	AdminSignIn(ctx context.Context, email, password, pin string, settings models.SystemSettings) (*service.Session, error)
	Get(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context, search string) ([]models.Account, error)
	CreateUser(ctx context.Context, in service.CreateUserInput, settings models.SystemSettings) (*models.Account, error)
	ToggleSuspend(ctx context.Context, id string) (*models.Account, error)
	SendNotice(ctx context.Context, id, notice string) (*models.Account, error)
	MarkNoticeRead(ctx context.Context, id string) error
	Stats(ctx context.Context) (models.Stats, error)
}

type Studio interface {
	NewSession() string
	Generate(ctx context.Context, account *models.Account, req service.GenerationRequest, settings models.SystemSettings) (*service.GenerationResult, error)
	History(ctx context.Context, accountID string, day time.Time) ([]models.PhotoRecord, error)
	Search(ctx context.Context, query string) ([]models.PhotoRecord, error)
}

type Recharges interface {
	Submit(ctx context.Context, account *models.Account, in service.RechargeInput, settings models.SystemSettings) (*models.RechargeRequest, error)
	ListForAccount(ctx context.Context, accountID string) ([]models.RechargeRequest, error)
	List(ctx context.Context, status models.RechargeStatus) ([]models.RechargeRequest, error)
	Approve(ctx context.Context, id string) (*models.RechargeRequest, error)
	Reject(ctx context.Context, id, reason string) (*models.RechargeRequest, error)
}

type Ledger interface {
	Adjust(ctx context.Context, accountID, amountText string, direction service.Direction) (decimal.Decimal, error)
}

type Settings interface {
	Get(ctx context.Context) (models.SystemSettings, error)
	Update(ctx context.Context, in service.SettingsInput) (models.SystemSettings, error)
	ReplacePaymentMethods(ctx context.Context, methods []models.PaymentMethod) (models.SystemSettings, error)
	UploadLogo(ctx context.Context, position int, data []byte, contentType string) (models.SystemSettings, error)
}

type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// Pinger reports backend health; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Accounts  Accounts
	Studio    Studio
	Recharges Recharges
	Ledger    Ledger
	Settings  Settings
	Tokens    TokenParser
	DB        Pinger
}

type Options struct {
	Addr               string
	RequestTimeout     time.Duration
	GenerateRatePerMin int
}

type Server struct {
	opts    Options
	log     *slog.Logger
	deps    Deps
	limiter *rateLimiter
	router  *chi.Mux
}

func NewServer(opts Options, log *slog.Logger, deps Deps) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewStructuredLogger(log))
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.Recoverer)

	s := &Server{
		opts:    opts,
		log:     log,
		deps:    deps,
		limiter: newRateLimiter(opts.GenerateRatePerMin),
		router:  r,
	}

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", s.handleSignUp)
		api.Post("/auth/signin", s.handleSignIn)
		api.Post("/auth/admin/signin", s.handleAdminSignIn)
		api.Get("/settings", s.handlePublicSettings)
		api.Get("/catalog", s.handleCatalog)

		api.Group(func(user chi.Router) {
			user.Use(s.authenticate)
			user.Get("/me", s.handleMe)
			user.Post("/me/notice/read", s.handleNoticeRead)
			user.Post("/studio/sessions", s.handleNewSession)
			user.With(s.limiter.Handler(s.writeError)).Post("/studio/generate", s.handleGenerate)
			user.Get("/photos", s.handleHistory)
			user.Post("/recharges", s.handleSubmitRecharge)
			user.Get("/recharges", s.handleMyRecharges)
		})
	})

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(s.authenticate, s.requireAdmin)
		admin.Get("/stats", s.handleStats)
		admin.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)
			r.Post("/{id}/balance", s.handleAdjustBalance)
			r.Post("/{id}/suspend", s.handleToggleSuspend)
			r.Post("/{id}/notice", s.handleSendNotice)
		})
		admin.Route("/recharges", func(r chi.Router) {
			r.Get("/", s.handleListRecharges)
			r.Post("/{id}/approve", s.handleApproveRecharge)
			r.Post("/{id}/reject", s.handleRejectRecharge)
		})
		admin.Get("/photos", s.handleSearchPhotos)
		admin.Route("/settings", func(r chi.Router) {
			r.Get("/", s.handleAdminSettings)
			r.Put("/", s.handleUpdateSettings)
			r.Put("/payment-methods", s.handleReplacePaymentMethods)
			r.Post("/payment-methods/{position}/logo", s.handleUploadLogo)
		})
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	writeTimeout := s.opts.RequestTimeout + 30*time.Second
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      writeTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("http shutdown error", "err", err)
		}
	}()

	s.log.Info("http api listening", "addr", s.opts.Addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.PingContext(ctx); err != nil {
			s.log.Warn("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
