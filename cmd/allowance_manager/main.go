package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"allowance_manager/internal/app/port"
	"allowance_manager/internal/app/provider"
	"allowance_manager/internal/app/service"
	"allowance_manager/internal/config"
	"allowance_manager/internal/domain/entity"
	"allowance_manager/internal/infrastructure/abiloader"
	clientprovider "allowance_manager/internal/infrastructure/network/client"
	networkdefinition "allowance_manager/internal/infrastructure/network/definition"
	"allowance_manager/internal/infrastructure/reportwriter"
	"allowance_manager/internal/infrastructure/repository"
	"allowance_manager/internal/infrastructure/restapi"
	"allowance_manager/internal/pkg/logger"
	"allowance_manager/internal/pkg/metrics"
	"allowance_manager/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

const defaultConfigPath = "config/config.yml"

func main() {
	if err := run(); err != nil {
		logger.Fatal("Allowance manager failed", "error", err)
	}
	logger.Sync()
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfgPath := utils.GetEnv("CONFIG_PATH", defaultConfigPath)
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	zapLogger, err := logger.Init(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: failed to initialize logger: %v\n", err)
		return err
	}
	appLogger := logger.NewSlogAdapter()
	appLogger.Info("Configuration loaded", "path", cfgPath, "mode", cfg.Approvals.Mode)

	netDefProvider, err := networkdefinition.NewNetworkDefinitionProvider(appLogger, cfg.Networks)
	if err != nil {
		return fmt.Errorf("failed to build network definitions: %w", err)
	}
	registry, err := clientprovider.NewEVMClientProvider(netDefProvider.GetAllNetworkDefinitions(), cfg, appLogger.Info, appLogger.Error)
	if err != nil {
		return err
	}
	defer registry.Close()

	erc20, err := abiloader.NewLoader(time.Duration(cfg.Performance.RPCCallTimeoutSeconds)*time.Second, zapLogger).Load(cfg.Files.ABI)
	if err != nil {
		return fmt.Errorf("failed to load ERC-20 ABI: %w", err)
	}

	m := metrics.New()
	batch, err := provider.NewTokenProvider(cfg.Files.Input, registry, appLogger).LoadTokens()
	if err != nil {
		return err
	}

	var submitter port.ApprovalSubmitter
	var release func()
	if cfg.Approvals.Mode == entity.ModeApprove {
		signer, err := provider.NewEscrowSigner(cfg.Escrow, appLogger)
		if err != nil {
			return err
		}
		release = signer.Release
		defer signer.Release()
		submitter = service.NewApprovalService(erc20, signer, cfg.Approvals.ConfirmationTimeout(), cfg.Approvals.PollInterval(), appLogger, m)
	}

	orchestrator := service.NewAllowanceOrchestrator(
		registry,
		service.NewTokenMetadataService(erc20, appLogger, m),
		service.NewAllowanceService(erc20),
		submitter,
		service.OrchestratorConfig{
			Mode:                  cfg.Approvals.Mode,
			Escrow:                cfg.Escrow.Address,
			MaxConcurrentRoutines: cfg.Performance.MaxConcurrentRoutines,
			Routers:               netDefProvider.RoutersByChain(),
		},
		appLogger,
		m,
	)

	report, runErr := orchestrator.Run(ctx, batch)
	if release != nil {
		release()
	}

	repo := repository.NewReportRepository(
		time.Duration(cfg.Cache.DefaultExpirationMinutes)*time.Minute,
		time.Duration(cfg.Cache.CleanupIntervalMinutes)*time.Minute,
	)
	if report != nil {
		repo.Save(report)
		if err := reportwriter.NewFileWriter(cfg.Files.TokenList, cfg.Files.Report, zapLogger).Write(report); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if !cfg.Server.Enabled {
		return nil
	}
	return serve(ctx, cfg.Server, repo, m)
}

// serve exposes the report API until ctx is cancelled.
func serve(ctx context.Context, cfg config.ServerConfig, repo port.ReportRepository, m *metrics.Metrics) error {
	zapLogger := logger.Zap()
	gin.SetMode(gin.ReleaseMode)
	router := restapi.SetupRouter(restapi.NewReportHandler(repo), m.Handler(), zapLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info(fmt.Sprintf("Report API starting on port %s", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("report API failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zapLogger.Info("Shutting down report API...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("report API forced to shutdown: %w", err)
	}
	zapLogger.Info("Report API exiting")
	return nil
}
