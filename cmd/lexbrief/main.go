package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/lexbrief/lexbrief/internal/ai"
	"github.com/lexbrief/lexbrief/internal/config"
	"github.com/lexbrief/lexbrief/internal/filestore"
	"github.com/lexbrief/lexbrief/internal/handler"
	"github.com/lexbrief/lexbrief/internal/job"
	"github.com/lexbrief/lexbrief/internal/middleware"
	"github.com/lexbrief/lexbrief/internal/repo"
	"github.com/lexbrief/lexbrief/internal/schedule"
	"github.com/lexbrief/lexbrief/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "lexbrief",
		Short: "lexbrief backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run lexbrief server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.DSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("file_store", cfg.FileStore.Type),
	)

	accountRepo := repo.NewAccountRepo(db)
	profileRepo := repo.NewProfileRepo(db)
	analysisRepo := repo.NewAnalysisRepo(db)
	apiKeyRepo := repo.NewAPIKeyRepo(db)
	usageLogRepo := repo.NewUsageLogRepo(db)

	mailSender := service.NewEmailSender(cfg.Mail)
	authService := service.NewAuthService(
		accountRepo,
		profileRepo,
		[]byte(cfg.JWTSecret),
		time.Hour*time.Duration(cfg.JWTTTLHours),
		cfg.Quota.DefaultDocumentLimit,
	)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo)
	usageService := service.NewUsageService(profileRepo, usageLogRepo)

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	invoker := ai.NewInvoker(aiProvider, ai.InvokerConfig{
		Model:         cfg.AI.Model,
		Timeout:       time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		MaxInputChars: cfg.AI.MaxInputChars,
	})
	archive, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	analysisService := service.NewAnalysisService(
		profileRepo,
		analysisRepo,
		usageLogRepo,
		apiKeyRepo,
		accountRepo,
		invoker,
		archive,
		mailSender,
		cfg.Upload.MaxSizeBytes,
	)

	deps := handler.RouterDeps{
		Auth:            handler.NewAuthHandler(authService),
		Analyze:         handler.NewAnalyzeHandler(analysisService),
		Analyses:        handler.NewAnalysisHandler(analysisService),
		Usage:           handler.NewUsageHandler(usageService),
		APIKeys:         handler.NewAPIKeyHandler(apiKeyService),
		Keys:            apiKeyService,
		JWTSecret:       []byte(cfg.JWTSecret),
		RateLimitWindow: time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		RateLimitMax:    cfg.RateLimit.MaxRequests,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewQuotaResetJob(profileRepo), "20 0 * * *"); err != nil {
		return fmt.Errorf("schedule quota reset: %w", err)
	}
	if err := scheduler.AddJob(job.NewAnalysisCleanupJob(analysisRepo), "*/10 * * * *"); err != nil {
		return fmt.Errorf("schedule analysis cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
