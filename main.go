package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/BatmanBruc/neural-bot/internal/ai"
	"github.com/BatmanBruc/neural-bot/internal/config"
	"github.com/BatmanBruc/neural-bot/internal/entitlement"
	"github.com/BatmanBruc/neural-bot/internal/handlers"
	"github.com/BatmanBruc/neural-bot/internal/httpapi"
	"github.com/BatmanBruc/neural-bot/internal/ledger"
	"github.com/BatmanBruc/neural-bot/internal/logger"
	"github.com/BatmanBruc/neural-bot/internal/middleware"
	"github.com/BatmanBruc/neural-bot/internal/notify"
	"github.com/BatmanBruc/neural-bot/internal/payments"
	"github.com/BatmanBruc/neural-bot/internal/pricing"
	"github.com/BatmanBruc/neural-bot/store"
	"github.com/BatmanBruc/neural-bot/types"
)

const (
	historyTTLHours     = 24
	paymentCacheTTLHour = 72
)

func main() {
	cfg, err := config.Load("config.env")
	if err != nil {
		bootLog := logger.New("production")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgStore, err := store.NewPostgresStore(ctx, cfg.PostgresURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	defer pgStore.Close()

	checks := map[string]httpapi.Pinger{"postgres": pgStore}

	var (
		paymentCache types.PaymentCache
		history      types.HistoryStore
	)
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB, "neural_bot")
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-memory dialogue history without payment cache")
		history = store.NewMemoryHistoryStore(store.DefaultHistoryWindow)
	} else {
		defer rdb.Close()
		paymentCache = store.NewRedisPaymentCache(rdb, paymentCacheTTLHour)
		history = store.NewRedisHistoryStore(rdb, historyTTLHours, store.DefaultHistoryWindow)
		checks["redis"] = rdb
	}

	catalog := newCatalog(cfg)

	quota := ledger.NewQuota(pgStore, cfg.Location(), time.Now)
	referrals := ledger.NewReferrals(pgStore, cfg.ReferralBonus)
	subs := ledger.NewSubscriptions(pgStore, catalog, time.Now)
	reports := ledger.NewReports(pgStore, quota)
	evaluator := entitlement.NewEvaluator(subs, quota, cfg.FreeQueriesPerDay, cfg.ReferralBonus, log)

	workflowOpts := []payments.Option{
		payments.WithLogger(log),
		payments.WithDestinations(payments.Destinations{
			ClickServiceID: cfg.ClickServiceID,
			CardNumber:     cfg.CardNumber,
			CardBank:       cfg.CardBank,
			CardHolder:     cfg.CardHolder,
		}),
	}
	if paymentCache != nil {
		workflowOpts = append(workflowOpts, payments.WithCache(paymentCache))
	}
	workflow := payments.NewWorkflow(pgStore, subs, catalog, cfg.AdminID, workflowOpts...)
	if n, err := workflow.Warm(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to warm payment cache")
	} else if n > 0 {
		log.Info().Int("payments", n).Msg("payment cache warmed")
	}

	responder, err := ai.NewGeminiResponder(ctx, cfg.GeminiAPIKey, history,
		ai.WithModel(cfg.GeminiModel),
		ai.WithLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}

	httpClient := &http.Client{
		Timeout: 2 * time.Minute,
	}
	pollTimeout := 50 * time.Second

	b, err := bot.New(
		cfg.BotToken,
		bot.WithHTTPClient(pollTimeout, httpClient),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get bot info")
	}

	dispatcher := notify.NewDispatcher(b, log, notify.Config{Workers: cfg.NotifyWorkers})
	dispatcher.Start()
	defer dispatcher.Stop()

	h := handlers.NewHandlers(handlers.Deps{
		Users:       pgStore,
		Referrals:   referrals,
		Subs:        subs,
		Reports:     reports,
		Evaluator:   evaluator,
		Payments:    workflow,
		Catalog:     catalog,
		AI:          responder,
		Notifier:    dispatcher,
		AdminID:     cfg.AdminID,
		FreePerDay:  cfg.FreeQueriesPerDay,
		Support:     cfg.SupportUsername,
		BotUsername: me.Username,
		Log:         log,
	})

	middlewares := middleware.NewMiddlewares(referrals, pgStore, dispatcher, cfg.AdminID, log)

	handlerChain := middlewares.RegisterUserMiddleware(
		middlewares.AnalyzeMessageMiddleware(
			h.MainHandler,
		),
	)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)

	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, handlerChain)

	if cfg.HTTPAddr != "" {
		if cfg.Env == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		go serveHTTP(ctx, cfg.HTTPAddr, httpapi.NewServer(reports, workflow, checks, cfg.AdminAPIToken, log), log)
	}

	log.Info().Str("bot", me.Username).Msg("bot started, press Ctrl+C to stop")
	b.Start(ctx)
	log.Info().Msg("bot stopped")
}

func serveHTTP(ctx context.Context, addr string, srv *httpapi.Server, log zerolog.Logger) {
	log.Info().Str("addr", addr).Msg("admin http api listening")
	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("admin http api stopped")
	}
}

func newCatalog(cfg *config.Config) *pricing.Catalog {
	return pricing.NewCatalog(
		pricing.Tier{Plan: types.PlanWeek, Price: cfg.PriceWeek, Days: cfg.DurationWeek},
		pricing.Tier{Plan: types.PlanMonth, Price: cfg.PriceMonth, Days: cfg.DurationMonth},
		pricing.Tier{Plan: types.PlanYear, Price: cfg.PriceYear, Days: cfg.DurationYear},
	)
}
