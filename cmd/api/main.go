package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/swaggo/swag"

	_ "github.com/christopherpaucar/life-insurance-back-sub000/docs"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/core"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/esign"
	transporthttp "github.com/christopherpaucar/life-insurance-back-sub000/internal/http"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/http/handlers"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/http/health"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/jobs"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/middleware"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/payment"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/platform/config"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/platform/logging"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/store/dynamo"
	"github.com/christopherpaucar/life-insurance-back-sub000/internal/store/mongo"
)

// repos groups the persistence interfaces plus the store health check.
type repos struct {
	contracts    core.ContractRepo
	transactions core.TransactionRepo
	insurances   core.InsuranceRepo
	methods      core.PaymentMethodRepo
	pinger       health.Pinger
	close        func(context.Context) error
}

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := buildRepos(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize store", "db_type", cfg.DBType, "err", err)
		os.Exit(1)
	}
	defer r.close(context.Background())

	processor := buildProcessor(cfg, log)
	signer := buildSigner(cfg, log)

	schedule := core.NewScheduleGenerator(r.transactions, log)
	contractSvc := core.NewContractService(r.contracts, r.insurances, r.methods, schedule, signer, nil, log)
	engine := core.NewDunningEngine(r.contracts, r.transactions, r.methods, processor, log)

	// Background workers
	workers := []jobs.Worker{
		jobs.NewDunningWorker(engine, time.Duration(cfg.DunningIntervalSec)*time.Second, log),
		jobs.NewExpirationWorker(r.contracts, time.Duration(cfg.ExpiryIntervalSec)*time.Second, log),
	}
	for _, w := range workers {
		go w.Start(ctx)
	}

	api := transporthttp.NewRouter(transporthttp.Deps{
		Mounts: []handlers.Mountable{
			handlers.NewInsuranceHandler(r.insurances, log),
			handlers.NewContractHandler(contractSvc, log),
		},
		Admin: []handlers.Mountable{
			handlers.NewDunningHandler(engine, log),
		},
		AdminAuth: middleware.SimpleAPIKey(cfg.APIKey),
	})

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPM, time.Minute)
	rateLimiter.StartWithContext(ctx)

	root := chi.NewRouter()
	root.Use(chimiddleware.RequestID)
	root.Use(chimiddleware.RealIP)
	root.Use(chimiddleware.Recoverer)
	root.Use(chimiddleware.Timeout(time.Duration(cfg.HTTPRequestTimeoutSec) * time.Second))
	root.Use(middleware.SecurityHeaders)
	root.Use(middleware.CORS(cfg.AllowedOrigins))
	root.Use(middleware.LimitRequestBody(middleware.MaxBodySize))
	root.Use(rateLimiter.Middleware)

	root.Mount("/", health.New(log, r.pinger, time.Duration(cfg.MongoConnectTimeoutSec)*time.Second))
	root.Mount("/api/v1", api)
	root.Get("/swagger.json", func(w http.ResponseWriter, _ *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, "swagger doc unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      root,
		ReadTimeout:  time.Duration(cfg.HTTPReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTPWriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTPIdleTimeoutSec) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "err", err)
		}
	}()

	log.Info("server listening", "addr", addr, "env", cfg.Env, "db_type", cfg.DBType)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func buildRepos(ctx context.Context, cfg *config.Config, log *slog.Logger) (repos, error) {
	switch cfg.DBType {
	case "dynamodb":
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return repos{}, err
		}
		if err := dynamo.EnsureTables(ctx, client.DB, log); err != nil {
			return repos{}, err
		}

		txns := dynamo.NewTransactionRepo(client.DB)
		return repos{
			contracts:    dynamo.NewContractRepo(client.DB, txns),
			transactions: txns,
			insurances:   dynamo.NewInsuranceRepo(client.DB),
			methods:      dynamo.NewPaymentMethodRepo(client.DB),
			pinger:       client,
			close:        func(context.Context) error { return nil },
		}, nil

	case "mongo":
		client, err := mongo.NewClient(cfg)
		if err != nil {
			return repos{}, err
		}
		if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
			return repos{}, err
		}

		opTimeout := time.Duration(cfg.MongoOpTimeoutMs) * time.Millisecond
		return repos{
			contracts:    mongo.NewContractRepo(client.DB, opTimeout),
			transactions: mongo.NewTransactionRepo(client.DB, opTimeout),
			insurances:   mongo.NewInsuranceRepo(client.DB, opTimeout),
			methods:      mongo.NewPaymentMethodRepo(client.DB, opTimeout),
			pinger:       client,
			close:        client.Close,
		}, nil

	default:
		return repos{}, fmt.Errorf("unknown DB_TYPE %q", cfg.DBType)
	}
}

func buildProcessor(cfg *config.Config, log *slog.Logger) core.PaymentProcessor {
	if cfg.PaymentEndpoint == "" {
		log.Warn("no payment endpoint configured, using simulated processor")
		return payment.NewSimulated(log)
	}
	return payment.NewProcessor(cfg.PaymentEndpoint, time.Duration(cfg.PaymentTimeoutSec)*time.Second, log)
}

func buildSigner(cfg *config.Config, log *slog.Logger) core.Signer {
	if cfg.ESignEndpoint == "" {
		log.Warn("no e-sign endpoint configured, using simulated signer")
		return esign.SimulatedSigner{}
	}
	return esign.NewSigner(cfg.ESignEndpoint, time.Duration(cfg.ESignTimeoutSec)*time.Second, log)
}
