// Command switchctld runs the operator-facing switch management service:
// MAC tracing and VLAN-assignment preview/execute against a fleet of Dell
// access switches, fronted by RBAC, concurrency governance, and audit.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/dellswitch/switchctl/internal/audit"
	"github.com/dellswitch/switchctl/internal/auth"
	"github.com/dellswitch/switchctl/internal/config"
	"github.com/dellswitch/switchctl/internal/credentials"
	"github.com/dellswitch/switchctl/internal/governor"
	"github.com/dellswitch/switchctl/internal/hostload"
	"github.com/dellswitch/switchctl/internal/httpapi"
	"github.com/dellswitch/switchctl/internal/inventory"
	"github.com/dellswitch/switchctl/internal/logging"
	"github.com/dellswitch/switchctl/internal/mactrace"
	appmiddleware "github.com/dellswitch/switchctl/internal/middleware"
	"github.com/dellswitch/switchctl/internal/server"
	"github.com/dellswitch/switchctl/internal/vlanchange"
)

func main() {
	devMode := os.Getenv("ENV") != "production"

	logCfg := logging.DefaultConfig()
	if devMode {
		logCfg = logging.DevelopmentConfig()
	}
	logging.Init(logCfg)
	defer logging.Sync()
	logger := logging.L()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	inv := inventory.NewMemoryStore()
	seed, err := inventory.LoadSeed(cfg.InventorySeedPath)
	if err != nil {
		logger.Warn("no inventory seed loaded, starting with an empty inventory", zap.Error(err))
	} else {
		inventory.Apply(inv, seed)
	}

	credStore, err := credentials.NewStore(credentials.Credential{
		Username: cfg.SwitchUsername,
		Secret:   cfg.SwitchSecret,
	})
	if err != nil {
		log.Fatalf("credentials: %v", err)
	}

	gov := governor.New(cfg.GovernorLimits)

	sampler := hostload.NewProcStatSampler()
	guard := hostload.New(cfg.HostLoadThresholds, sampler.Sample, func(state hostload.State) {
		gov.SetSiteCapacityFactor(state != hostload.Green)
		logger.Info("host load transition", zap.String("state", string(state)))
	})
	guard.Start()
	defer guard.Stop()

	jwtService, err := auth.NewJWTServiceFromEnv()
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}

	passwordService := auth.NewDefaultPasswordService()
	userRepo := auth.NewLocalUserRepository()
	seedBootstrapAdmin(userRepo, passwordService)

	sessionRepo := auth.NewMemorySessionRepository()

	var directory *auth.DirectoryResolver
	if cfg.Directory.Enabled {
		directory = auth.NewDirectoryResolver(auth.DirectoryConfig{
			URL:            cfg.Directory.URL,
			BaseDN:         cfg.Directory.BaseDN,
			UserFilter:     cfg.Directory.UserFilter,
			GroupAttribute: cfg.Directory.GroupAttribute,
			GroupRoles:     cfg.Directory.GroupRoles,
			DefaultRole:    cfg.Directory.DefaultRole,
		})
	}

	authAudit := auth.NewMultiAuditLogger(auth.NewLoggerAuditLogger("auth"), auth.NewInMemoryAuditLogger(1000))

	authSvc, err := auth.NewService(auth.Config{
		JWTService:        jwtService,
		PasswordService:   passwordService,
		UserRepository:    userRepo,
		SessionRepository: sessionRepo,
		Directory:         directory,
		AuditLogger:       authAudit,
		Logger:            logger,
		IdleTimeout:       cfg.IdleSessionTimeout,
	})
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	auditSink := audit.NewMemorySink()

	traceEngine := mactrace.NewEngine(inv, credStore, gov, cfg.DialOpts)
	vlanEngine := vlanchange.NewEngine(inv, credStore, gov, cfg.DialOpts)

	router := httpapi.New(httpapi.Config{
		Auth:       authSvc,
		MacTrace:   traceEngine,
		VlanChange: vlanEngine,
		Inventory:  inv,
		HostLoad:   guard,
		Audit:      auditSink,
		Logger:     logger,
		CookieConfig: appmiddleware.AuthMiddlewareConfig{
			CookieSecure: cfg.CookieSecure,
		},
	})

	var srvCfg server.Config
	if devMode {
		srvCfg = server.DefaultDevConfig()
	} else {
		srvCfg = server.DefaultProdConfig()
	}
	srv := server.New(srvCfg)
	router.Register(srv.Echo)

	if devMode {
		server.ApplyDevMiddleware(srv.Echo)
	} else {
		server.ApplyProdMiddleware(srv.Echo)
	}

	logger.Info("switchctld starting", zap.String("port", srvCfg.Port), zap.Bool("dev_mode", devMode))
	srv.Start(func(ctx context.Context) {
		_ = ctx
	})
}

// seedBootstrapAdmin creates a single local super-admin account from
// ADMIN_USERNAME/ADMIN_PASSWORD so a fresh deployment isn't locked out
// before a directory or a proper user store is configured. Skipped when
// either variable is unset.
func seedBootstrapAdmin(repo *auth.LocalUserRepository, passwords *auth.PasswordService) {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}
	hash, err := passwords.HashPassword(password)
	if err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}
	now := time.Now()
	err = repo.Create(context.Background(), &auth.User{
		ID:              "id-bootstrap-admin",
		Username:        username,
		DisplayName:     username,
		PasswordHash:    hash,
		Role:            auth.RoleSuperAdmin,
		Active:          true,
		PasswordChanged: now,
	})
	if err != nil && !errors.Is(err, auth.ErrUserExists) {
		log.Fatalf("bootstrap admin: %v", err)
	}
}
