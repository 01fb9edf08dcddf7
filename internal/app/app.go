package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/riskibarqy/bilardeando/internal/config"
	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/payment"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/squad"
	"github.com/riskibarqy/bilardeando/internal/domain/team"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/auth"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/lock"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/payment/mercadopago"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/payment/mockgateway"
	cacherepo "github.com/riskibarqy/bilardeando/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/bilardeando/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/bilardeando/internal/platform/cache"
	idgen "github.com/riskibarqy/bilardeando/internal/platform/id"
	"github.com/riskibarqy/bilardeando/internal/platform/logging"
	"github.com/riskibarqy/bilardeando/internal/usecase"
)

const paymentWebhookPath = "/v1/webhooks/payments"

type repositories struct {
	users     user.Repository
	teams     team.Repository
	players   player.Repository
	matchdays matchday.Repository
	squads    squad.Repository
	txs       transaction.Repository
	leagues   customleague.Repository
}

// Services is the wired use case layer shared by the API and the scheduler
// CLI.
type Services struct {
	Accounts       *usecase.AccountService
	Players        *usecase.PlayerService
	Roster         *usecase.RosterService
	Transfers      *usecase.TransferService
	Wallet         *usecase.WalletService
	Payments       *usecase.PaymentService
	PrivateLeagues *usecase.PrivateLeagueService
	LeagueLock     *usecase.LeagueLockService

	closers []func() error
}

// Close releases database and redis connections.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func NewServices(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Services, error) {
	if logger == nil {
		logger = logging.Default()
	}

	svc := &Services{}
	repos, err := svc.buildRepositories(ctx, cfg, logger)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}

	gateway, err := buildGateway(cfg, logger)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}

	locker, err := svc.buildLocker(ctx, cfg, logger)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}

	var scheduler usecase.LeagueLockScheduler
	if cfg.QStashEnabled {
		scheduler = jobqueue.NewLeagueLockScheduler(jobqueue.NewClient(jobqueue.Config{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			Retries:          cfg.QStashRetries,
			InternalJobToken: cfg.InternalJobToken,
			Timeout:          cfg.QStashTimeout,
			CircuitBreaker:   cfg.QStashCircuit,
		}, logger))
	}

	ids := idgen.NewUUIDGenerator()
	svc.Accounts = usecase.NewAccountService(repos.users, logger)
	svc.Players = usecase.NewPlayerService(repos.players, repos.teams, repos.matchdays)
	svc.Roster = usecase.NewRosterService(repos.squads, repos.players, ids, logger)
	svc.Transfers = usecase.NewTransferService(repos.squads, repos.players, repos.users, ids, logger)
	svc.Wallet = usecase.NewWalletService(repos.users, repos.txs, gateway, cfg.PublicBaseURL, ids, logger)
	svc.Payments = usecase.NewPaymentService(repos.txs, gateway, logger)
	svc.PrivateLeagues = usecase.NewPrivateLeagueService(
		repos.leagues,
		repos.matchdays,
		repos.users,
		repos.txs,
		gateway,
		cfg.PublicBaseURL,
		scheduler,
		ids,
		logger,
	)
	svc.LeagueLock = usecase.NewLeagueLockService(repos.leagues, svc.PrivateLeagues, locker, cfg.LeagueLockWorkers, logger)

	return svc, nil
}

func (s *Services) buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, error) {
	var repos repositories
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := OpenDB(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		s.closers = append(s.closers, db.Close)

		if cfg.StorageSeed {
			if err := postgres.BootstrapSeed(ctx, db); err != nil {
				return repositories{}, fmt.Errorf("bootstrap seed: %w", err)
			}
		}
		repos = repositories{
			users:     postgres.NewUserRepository(db),
			teams:     postgres.NewTeamRepository(db),
			players:   postgres.NewPlayerRepository(db),
			matchdays: postgres.NewMatchdayRepository(db),
			squads:    postgres.NewSquadRepository(db),
			txs:       postgres.NewTransactionRepository(db),
			leagues:   postgres.NewCustomLeagueRepository(db),
		}
		logger.InfoContext(ctx, "storage ready", "driver", config.StoragePostgres, "db", parseDSN(cfg.DBURL, false).Safe)
	default:
		store := memory.NewSeededStore()
		repos = repositories{
			users:     memory.NewUserRepository(store),
			teams:     memory.NewTeamRepository(store),
			players:   memory.NewPlayerRepository(store),
			matchdays: memory.NewMatchdayRepository(store),
			squads:    memory.NewSquadRepository(store),
			txs:       memory.NewTransactionRepository(store),
			leagues:   memory.NewCustomLeagueRepository(store),
		}
		logger.InfoContext(ctx, "storage ready", "driver", config.StorageMemory)
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL)
		repos.teams = cacherepo.NewTeamRepository(repos.teams, store)
		repos.players = cacherepo.NewPlayerRepository(repos.players, store)
		repos.matchdays = cacherepo.NewMatchdayRepository(repos.matchdays, store)
	}

	return repos, nil
}

func (s *Services) buildLocker(ctx context.Context, cfg config.Config, logger *logging.Logger) (usecase.Locker, error) {
	if cfg.RedisAddr == "" {
		return lock.NewLocalLocker(), nil
	}

	locker := lock.NewRedisLocker(lock.NewRedisClient(lock.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}), logger)
	s.closers = append(s.closers, locker.Close)
	if err := locker.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return locker, nil
}

func buildGateway(cfg config.Config, logger *logging.Logger) (payment.Gateway, error) {
	if cfg.PaymentProvider != config.PaymentMercadoPago {
		logger.Warn("mock payment gateway enabled", "public_base_url", cfg.PublicBaseURL)
		return mockgateway.New(cfg.PublicBaseURL, logger), nil
	}

	client, err := mercadopago.NewClient(mercadopago.Config{
		BaseURL:         cfg.MercadoPagoBaseURL,
		AccessToken:     cfg.MercadoPagoAccessToken,
		NotificationURL: cfg.PublicBaseURL + paymentWebhookPath,
		Currency:        cfg.MercadoPagoCurrency,
		Sandbox:         cfg.MercadoPagoSandbox,
		Timeout:         cfg.MercadoPagoTimeout,
		MaxRetries:      cfg.MercadoPagoMaxRetries,
		CircuitBreaker:  cfg.MercadoPagoCircuit,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build mercadopago client: %w", err)
	}
	return client, nil
}

func buildVerifier(cfg config.Config, logger *logging.Logger) (httpapi.TokenVerifier, error) {
	if cfg.AuthMode == config.AuthJWT {
		verifier, err := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return nil, fmt.Errorf("build jwt verifier: %w", err)
		}
		return verifier, nil
	}

	return auth.NewAnubisVerifier(auth.AnubisConfig{
		HTTPClient:     &http.Client{Timeout: cfg.AnubisTimeout},
		BaseURL:        cfg.AnubisBaseURL,
		IntrospectPath: cfg.AnubisIntrospectURL,
		AdminKey:       cfg.AnubisAdminKey,
		CacheTTL:       cfg.AnubisCacheTTL,
		CircuitBreaker: cfg.AnubisCircuit,
	}, logger), nil
}

// NewHTTPServer wires the API router on top of already built services.
func NewHTTPServer(cfg config.Config, svc *Services, logger *logging.Logger) (*http.Server, error) {
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	verifier, err := buildVerifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	handler := httpapi.NewHandler(
		svc.Accounts,
		svc.Players,
		svc.Roster,
		svc.Transfers,
		svc.Wallet,
		svc.Payments,
		svc.PrivateLeagues,
		svc.LeagueLock,
		cfg.MockPaymentsEnabled(),
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, svc.Accounts, logger, httpapi.RouterConfig{
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
