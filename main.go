package main

import (
	auth "Culvert/internal/auth"
	channel "Culvert/internal/calc/channel"
	autodesign "Culvert/internal/calc/premium/autodesign"
	batch "Culvert/internal/calc/premium/batch"
	importer "Culvert/internal/calc/premium/importer"
	recommend "Culvert/internal/calc/premium/recommend"
	report "Culvert/internal/calc/report"
	config "Culvert/internal/config"
	observability "Culvert/internal/observability"
	profile "Culvert/internal/profile"
	repo "Culvert/internal/repo"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var wg sync.WaitGroup

type App struct {
	Config  *config.Config
	Repo    repo.Repository
	Log     *zap.Logger
	Metrics *observability.Metrics
}

// Wrap adds the middleware shared by every route.
func (a *App) Wrap(r *mux.Router) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(a.Log)),
		handlers.PrintRecoveryStack(true),
	)
	return recovery(observability.RequestLogger(a.Log)(cors(r)))
}

func HandleList(router *mux.Router, a *App) {
	cfg := a.Config
	handle := func(r *mux.Router, path string, h http.HandlerFunc, methods ...string) {
		r.Handle(path, a.Metrics.WrapHandler(path, h)).Methods(methods...)
	}

	authEnv := &auth.Authenv{JWTkey: []byte(cfg.TokenKey), Repo: a.Repo, Log: a.Log}
	profileH := profile.NewProfileHandler(a.Repo, repo.Settings{SpecificWeightNM3: cfg.SpecificWeight}, a.Log)

	limiter := auth.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")
	router.Handle("/metrics", a.Metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	handle(api, "/login", limited(limiter, authEnv.AuthHandler), "POST")
	handle(api, "/register", limited(limiter, authEnv.RegisterHandler), "POST")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.AuthMiddleware)

	handle(secureApi, "/logout", authEnv.LogoutHandler, "POST")
	handle(secureApi, "/settings", profileH.GetSettings, "GET")
	handle(secureApi, "/settings", profileH.UpdateSettings, "PATCH", "PUT")

	channelH := &channel.Handler{
		Solver:   channel.Solver{MaxIter: cfg.SolverMaxIter, Tolerance: cfg.SolverTolerance},
		Defaults: profileH,
		Metrics:  a.Metrics,
		Log:      a.Log,
	}
	batchH := &batch.Handler{Solver: channelH, MaxItems: cfg.BatchMaxItems, Workers: cfg.BatchWorkers}
	importH := &importer.Handler{Solver: channelH, MaxItems: cfg.BatchMaxItems, Workers: cfg.BatchWorkers, Log: a.Log}
	autoH := autodesign.NewHandler(channelH, profileH)
	recommendH := recommend.NewHandler(channelH, profileH)
	reportH := report.NewHandler(channelH)

	handle(secureApi, "/tools/channel/calc", channelH.Calc, "POST")
	handle(secureApi, "/tools/channel/batch", batchH.Channel, "POST")
	handle(secureApi, "/tools/channel/import", importH.Import, "POST")
	handle(secureApi, "/tools/channel/export", importH.Export, "POST")
	handle(secureApi, "/tools/channel/autodesign", autoH.Channel, "POST")
	handle(secureApi, "/tools/channel/recommend", recommendH.Channel, "POST")
	handle(secureApi, "/tools/channel/report", reportH.Generate, "POST")
}

func limited(l *auth.IPRateLimiter, h http.HandlerFunc) http.HandlerFunc {
	return l.LimitMiddleware(h).ServeHTTP
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := auth.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer db.Close()
	userRepo := repo.NewPostgresUserDB(db)
	if err := userRepo.Migrate(ctx); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	app := &App{Config: cfg, Repo: userRepo, Log: logger, Metrics: observability.NewMetrics()}
	mux := mux.NewRouter()
	HandleList(mux, app)

	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           app.Wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", zap.String("addr", cfg.ServerAddr), zap.Bool("tls", cfg.TLSEnabled))
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		if cfg.TLSEnabled {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received, closing active connections")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	wg.Wait()
	logger.Info("server stopped")
}
