package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/plus-predictor/db/seed"
	"github.com/riskibarqy/plus-predictor/external/jobqueue"
	"github.com/riskibarqy/plus-predictor/external/paymentgateway"
	"github.com/riskibarqy/plus-predictor/external/sportmonks"
	"github.com/riskibarqy/plus-predictor/internal/config"
	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/prediction"
	"github.com/riskibarqy/plus-predictor/internal/domain/team"
	"github.com/riskibarqy/plus-predictor/internal/infrastructure/account/identity"
	cacherepo "github.com/riskibarqy/plus-predictor/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/plus-predictor/internal/infrastructure/repository/sqlstore"
	"github.com/riskibarqy/plus-predictor/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/plus-predictor/internal/platform/cache"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

const paymentRetryBackoff = 250 * time.Millisecond

// NewHTTPServer opens the database, wires every service and returns the
// server together with a cleanup that releases the database handle.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	handler, users := buildHandler(cfg, db, logger)
	verifier := identity.NewClient(identity.Config{
		BaseURL:        cfg.IdentityBaseURL,
		IntrospectPath: cfg.IdentityIntrospectPath,
		Timeout:        cfg.IdentityTimeout,
		CacheTTL:       cfg.IdentityCacheTTL,
		CircuitBreaker: cfg.IdentityCircuit,
		Logger:         logger,
	})

	router := httpapi.NewRouter(handler, verifier, users, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminAPIKey:        cfg.AdminAPIKey,
		WebhookSecret:      cfg.PaymentWebhookSecret,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, db.Close, nil
}

func openDatabase(ctx context.Context, cfg config.Config, logger *logging.Logger) (*sqlx.DB, error) {
	db, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.DBAutoMigrate {
		if err := sqlstore.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.InfoContext(ctx, "database migrated", "driver", cfg.DBDriver)
	}

	if cfg.DBSeedDemo {
		seeded, err := sqlstore.BootstrapSeed(ctx, db, seed.Demo, time.Now().UTC())
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed database: %w", err)
		}
		if seeded {
			logger.InfoContext(ctx, "demo data loaded into empty database")
		}
	}

	return db, nil
}

func buildHandler(cfg config.Config, db *sqlx.DB, logger *logging.Logger) (*httpapi.Handler, *usecase.UserService) {
	var (
		teamRepo    team.Repository    = sqlstore.NewTeamRepository(db)
		fixtureRepo fixture.Repository = sqlstore.NewFixtureRepository(db)
	)
	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		teamRepo = cacherepo.NewTeamRepository(teamRepo, store)
		fixtureRepo = cacherepo.NewFixtureRepository(fixtureRepo, store)
	}

	predictionRepo := sqlstore.NewPredictionRepository(db)
	leagueRepo := sqlstore.NewLeagueRepository(db)
	rankingRepo := sqlstore.NewRankingRepository(db)
	userRepo := sqlstore.NewUserRepository(db)
	productRepo := sqlstore.NewProductRepository(db)
	orderRepo := sqlstore.NewOrderRepository(db)
	paymentRepo := sqlstore.NewPaymentRepository(db)

	idGen := idgen.NewUUIDGenerator()

	gateway := paymentgateway.NewClient(paymentgateway.Config{
		BaseURL:        cfg.PaymentBaseURL,
		APIKey:         cfg.PaymentAPIKey,
		MultibancoKey:  cfg.PaymentMultibancoKey,
		MBWayKey:       cfg.PaymentMBWayKey,
		Timeout:        cfg.PaymentTimeout,
		MaxRetries:     cfg.PaymentMaxRetries,
		RetryBackoff:   paymentRetryBackoff,
		CircuitBreaker: cfg.PaymentCircuit,
		Logger:         logger,
	})

	scoring := usecase.NewScoringService(predictionRepo, prediction.DefaultRules(), logger)
	users := usecase.NewUserService(userRepo)
	leagues := usecase.NewLeagueService(leagueRepo, rankingRepo, idGen)
	payments := usecase.NewPaymentService(
		orderRepo,
		paymentRepo,
		gateway,
		usecase.PaymentTTLs{Multibanco: cfg.PaymentMultibancoTTL, MBWay: cfg.PaymentMBWayTTL},
		idGen,
		logger,
	)
	if cfg.QStashEnabled {
		payments.WithReconcileScheduler(jobqueue.NewPublisher(jobqueue.Config{
			BaseURL:        cfg.QStashBaseURL,
			Token:          cfg.QStashToken,
			TargetBaseURL:  cfg.QStashTargetBaseURL,
			Retries:        cfg.QStashRetries,
			AdminAPIKey:    cfg.AdminAPIKey,
			Timeout:        cfg.QStashTimeout,
			CircuitBreaker: cfg.QStashCircuit,
			Logger:         logger,
		}))
	}

	fixtures := usecase.NewFixtureService(fixtureRepo, teamRepo, scoring, idGen)
	if cfg.SportMonksEnabled {
		fixtures.WithResultFeed(sportmonks.NewClient(sportmonks.ClientConfig{
			BaseURL:        cfg.SportMonksBaseURL,
			Token:          cfg.SportMonksToken,
			Timeout:        cfg.SportMonksTimeout,
			MaxRetries:     cfg.SportMonksMaxRetries,
			Logger:         logger,
			CircuitBreaker: cfg.SportMonksCircuit,
		}))
	}

	handler := httpapi.NewHandler(httpapi.Services{
		Teams:       usecase.NewTeamService(teamRepo, idGen),
		Fixtures:    fixtures,
		Predictions: usecase.NewPredictionService(fixtureRepo, predictionRepo, scoring, cfg.PredictionLockLead, idGen),
		Leagues:     leagues,
		Users:       users,
		Dashboard:   usecase.NewDashboardService(users, leagues, fixtureRepo, rankingRepo, cfg.PredictionLockLead),
		Shop:        usecase.NewShopService(productRepo, orderRepo, idGen, logger),
		Payments:    payments,
		Reconciler:  usecase.NewPaymentReconciler(paymentRepo, payments, cfg.ReconcileWorkers, logger),
	}, db, logger)

	return handler, users
}
