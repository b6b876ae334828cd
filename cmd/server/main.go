package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"membergate/internal/audit"
	"membergate/internal/audit/relay"
	auditmemory "membergate/internal/audit/store/memory"
	auditpostgres "membergate/internal/audit/store/postgres"
	consenthandler "membergate/internal/consent/handler"
	consentservice "membergate/internal/consent/service"
	consentstore "membergate/internal/consent/store"
	customerhandler "membergate/internal/customer/handler"
	customerservice "membergate/internal/customer/service"
	customerstore "membergate/internal/customer/store"
	memberhandler "membergate/internal/member/handler"
	memberservice "membergate/internal/member/service"
	memberstore "membergate/internal/member/store"
	"membergate/internal/platform/config"
	"membergate/internal/platform/database"
	"membergate/internal/platform/httpserver"
	"membergate/internal/platform/logger"
	"membergate/internal/platform/metrics"
	platformredis "membergate/internal/platform/redis"
	httptransport "membergate/internal/transport/http"
	"membergate/internal/verification"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checks := map[string]httptransport.HealthCheck{}

	var (
		memberStore   memberservice.Store
		consentStore  consentservice.Store
		customerStore customerservice.Store
		auditStore    audit.Store
		memberTx      memberservice.StoreTx
		outbox        relay.Outbox
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres ping: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}

		pgAudit := auditpostgres.New(db)
		memberStore = memberstore.NewPostgres(db)
		consentStore = consentstore.NewPostgres(db)
		customerStore = customerstore.NewPostgres(db)
		auditStore = pgAudit
		outbox = pgAudit
		memberTx = newMemberPostgresTx(db)
		checks["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		memberStore = memberstore.NewInMemory()
		consentStore = consentstore.NewInMemory()
		customerStore = customerstore.NewInMemory()
		auditStore = auditmemory.New()
		memberTx = memberservice.NewShardedTx()
	}

	var usedStore verification.UsedStore = verification.NewMemoryUsedStore()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		usedStore = verification.NewRedisUsedStore(redisClient.Client)
		checks["redis"] = redisClient.Health
	}

	consentSvc := consentservice.NewService(consentStore,
		consentservice.WithMetrics(m),
		consentservice.WithDefaultValidity(cfg.ConsentValidity),
	)
	auditor := audit.NewPublisher(auditStore)
	verifier := verification.NewIssuer(cfg.Verification.SigningKey, cfg.Verification.TTL, usedStore)
	memberSvc := memberservice.NewService(memberStore, consentSvc, auditor, verifier, memberTx,
		memberservice.WithMetrics(m),
		memberservice.WithDefaultRetention(cfg.RetentionDefault),
	)
	customerSvc := customerservice.NewService(customerStore)

	router := httptransport.New(log, checks,
		memberhandler.New(memberSvc, log),
		consenthandler.New(consentSvc, log),
		customerhandler.New(customerSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 && outbox != nil {
		kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.Kafka.Brokers...))
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaClient.Close()

		auditRelay := relay.New(outbox, kafkaClient, cfg.Kafka.Topic, log)
		g.Go(func() error {
			log.Info("audit relay started", "topic", cfg.Kafka.Topic)
			if err := auditRelay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
