package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/BatmanBruc/neural-bot/types"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type StatsSource interface {
	Stats(ctx context.Context) (*types.Stats, error)
}

type PendingSource interface {
	Pending(ctx context.Context) ([]*types.Payment, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	stats   StatsSource
	pending PendingSource
	checks  map[string]Pinger
	token   string
	log     zerolog.Logger
}

func NewServer(stats StatsSource, pending PendingSource, checks map[string]Pinger, token string, log zerolog.Logger) *Server {
	return &Server{stats: stats, pending: pending, checks: checks, token: strings.TrimSpace(token), log: log}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.health)

	admin := r.Group("/", s.requireToken())
	admin.GET("/stats", s.getStats)
	admin.GET("/payments/pending", s.getPending)
	return r
}

// ListenAndServe runs until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "admin api disabled"})
			c.Abort()
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	result := gin.H{}
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			s.log.Warn().Err(err).Str("check", name).Msg("health check failed")
			result[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}
	c.JSON(status, result)
}

func (s *Server) getStats(c *gin.Context) {
	st, err := s.stats.Stats(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect stats"})
		return
	}
	c.JSON(http.StatusOK, st)
}

type pendingPayment struct {
	PaymentID string    `json:"payment_id"`
	UserID    int64     `json:"user_id"`
	Plan      string    `json:"plan"`
	Method    string    `json:"method"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) getPending(c *gin.Context) {
	list, err := s.pending.Pending(c.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list pending payments failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	out := make([]pendingPayment, 0, len(list))
	for _, p := range list {
		out = append(out, pendingPayment{
			PaymentID: p.PaymentID,
			UserID:    p.UserID,
			Plan:      string(p.Plan),
			Method:    string(p.Method),
			Amount:    p.Amount,
			CreatedAt: p.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}
