package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"

	apihttp "chargenet-cloud/internal/api/http"
	"chargenet-cloud/internal/audit"
	"chargenet-cloud/internal/config"
	"chargenet-cloud/internal/locking"
	masterdatapg "chargenet-cloud/internal/masterdata/infrastructure/postgres"
	"chargenet-cloud/internal/notify"
	"chargenet-cloud/internal/observability/metrics"
	"chargenet-cloud/internal/ocpi/cpo"
	"chargenet-cloud/internal/ocpi/mapper"
	"chargenet-cloud/internal/ocpi/transport"
	roaming "chargenet-cloud/internal/roaming/domain"
	roamingpg "chargenet-cloud/internal/roaming/infrastructure/postgres"
	"chargenet-cloud/internal/scheduler"
	sessionsapp "chargenet-cloud/internal/sessions/application"
	sessionspg "chargenet-cloud/internal/sessions/infrastructure/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	locks, err := locking.NewRedisManager(redisClient, locking.WithTTL(cfg.LockTTL.Std()))
	if err != nil {
		logger.Fatalf("lock manager error: %v", err)
	}

	siteRepo := masterdatapg.NewSiteRepository(db)
	siteAreaRepo := masterdatapg.NewSiteAreaRepository(db)
	stationRepo := masterdatapg.NewStationRepository(db)
	tagRepo := masterdatapg.NewTagRepository(db)
	userRepo := masterdatapg.NewUserRepository(db)
	transactionRepo := sessionspg.NewTransactionRepository(db)
	consumptionRepo := sessionspg.NewConsumptionRepository(db)
	endpointRepo := roamingpg.NewEndpointRepository(db)
	tenantRepo := roamingpg.NewTenantRepository(db)
	auditRepo := audit.NewRepository(db, logger)

	var notifyQueue *notify.Queue
	if cfg.AdminWebhookURL != "" {
		channel, err := notify.NewWebhookChannel(cfg.AdminWebhookURL)
		if err != nil {
			logger.Fatalf("admin webhook error: %v", err)
		}
		notifyQueue = notify.NewQueue(channel, logger)
	}

	tariffs := mapper.NewTariffResolver(cfg.TariffOverrides)
	registry, err := cpo.NewRegistry(func(tenant roaming.Tenant, endpoint *roaming.Endpoint) (*cpo.Client, error) {
		httpTransport, err := transport.NewClient(endpoint.Token)
		if err != nil {
			return nil, err
		}
		deps := cpo.Deps{
			Tenant:       tenant,
			Endpoint:     endpoint,
			Transport:    httpTransport,
			Mapper:       mapper.New(endpoint.CountryCode, endpoint.PartyID, tariffs),
			Stations:     stationRepo,
			Sites:        siteRepo,
			SiteAreas:    siteAreaRepo,
			Tags:         tagRepo,
			Users:        userRepo,
			Transactions: transactionRepo,
			Consumptions: consumptionRepo,
			Endpoints:    endpointRepo,
			Clock:        cpo.SystemClock{},
			Logger:       logger,
			Concurrency:  cfg.BatchConcurrency,
		}
		if notifyQueue != nil {
			deps.Notifier = notifyQueue
		}
		return cpo.NewClient(deps)
	})
	if err != nil {
		logger.Fatalf("client registry error: %v", err)
	}

	sched := scheduler.New(logger)
	tasks := map[string]scheduler.UseCase{
		"pull-tokens-partial": func(ctx context.Context, client *cpo.Client) (*cpo.Result, error) {
			return client.PullTokens(ctx, true)
		},
		"pull-tokens-full": func(ctx context.Context, client *cpo.Client) (*cpo.Result, error) {
			return client.PullTokens(ctx, false)
		},
		"send-evse-statuses-delta": func(ctx context.Context, client *cpo.Client) (*cpo.Result, error) {
			return client.SendEVSEStatuses(ctx, false)
		},
		"send-evse-statuses-full": func(ctx context.Context, client *cpo.Client) (*cpo.Result, error) {
			return client.SendEVSEStatuses(ctx, true)
		},
		"check-sessions": func(ctx context.Context, client *cpo.Client) (*cpo.Result, error) {
			return client.CheckSessions(ctx)
		},
		"check-cdrs": func(ctx context.Context, client *cpo.Client) (*cpo.Result, error) {
			return client.CheckCdrs(ctx)
		},
		"check-locations": func(ctx context.Context, client *cpo.Client) (*cpo.Result, error) {
			return client.CheckLocations(ctx)
		},
	}
	for name, useCase := range tasks {
		task, err := scheduler.NewOCPITask(name, tenantRepo, endpointRepo, locks, registry, useCase, auditRepo, logger)
		if err != nil {
			logger.Fatalf("task %s error: %v", name, err)
		}
		if err := sched.Register(name, task); err != nil {
			logger.Fatalf("register task %s error: %v", name, err)
		}
	}
	sched.Schedule(cfg.Tasks)

	exportService, err := sessionsapp.NewCdrExportService(transactionRepo)
	if err != nil {
		logger.Fatalf("cdr export service error: %v", err)
	}

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Runner:    sched,
		Endpoints: endpointRepo,
		JobRuns:   auditRepo,
		Collector: exportService,
		JWTSecret: []byte(cfg.JWTSecret),
	})
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(router, logger)}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if notifyQueue != nil {
		notifyQueue.Start(ctx)
		defer notifyQueue.Close()
	}
	sched.Start()

	go func() {
		logger.Printf("http listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("http shutdown error: %v", err)
	}
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(writer, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, writer.status, time.Since(started).Round(time.Millisecond))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
