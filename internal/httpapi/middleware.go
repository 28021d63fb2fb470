package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/digkill/PhotoStudio/internal/models"
	"github.com/digkill/PhotoStudio/internal/service"
)

type ctxKey int

const accountKey ctxKey = iota

// NewStructuredLogger logs one line per request with slog.
func NewStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			defer func() {
				status := ww.Status()
				requestAttrs := slog.Group("request",
					slog.String("id", middleware.GetReqID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)
				responseAttrs := slog.Group("response",
					slog.Int("status", status),
					slog.Int("bytes", ww.BytesWritten()),
					slog.String("latency", time.Since(start).String()),
				)
				if status >= 500 {
					logger.Error("server error", requestAttrs, responseAttrs)
				} else {
					logger.Info("request completed", requestAttrs, responseAttrs)
				}
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

// authenticate resolves the bearer token to a freshly loaded account so role and
// suspension changes apply to tokens issued earlier.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			s.writeError(w, r, service.ErrAuthFailed)
			return
		}
		claims, err := s.deps.Tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			s.writeError(w, r, service.ErrAuthFailed)
			return
		}
		account, err := s.deps.Accounts.Get(r.Context(), claims.AccountID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				err = service.ErrAuthFailed
			}
			s.writeError(w, r, err)
			return
		}
		if account.IsSuspended {
			s.writeError(w, r, service.ErrAccountSuspended)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, account)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !accountFrom(r.Context()).IsAdmin() {
			s.writeError(w, r, service.ErrAccessDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func accountFrom(ctx context.Context) *models.Account {
	account, _ := ctx.Value(accountKey).(*models.Account)
	return account
}

const maxTrackedLimiters = 10000

// rateLimiter keeps one token bucket per account.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// newRateLimiter allows perMinute requests per account; zero or less disables limiting.
func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		return &rateLimiter{limit: rate.Inf}
	}
	return &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (rl *rateLimiter) allow(key string) bool {
	if rl.limit == rate.Inf {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= maxTrackedLimiters {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter.Allow()
}

func (rl *rateLimiter) Handler(onLimited func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if account := accountFrom(r.Context()); account != nil {
				key = account.ID
			}
			if !rl.allow(key) {
				onLimited(w, r, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
