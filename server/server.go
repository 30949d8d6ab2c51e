package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"k8s.io/client-go/kubernetes"

	"github.com/customeros/dmarc-summaries/api"
	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/internal/cron"
	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/logger"
	"github.com/customeros/dmarc-summaries/internal/tracing"
	"github.com/customeros/dmarc-summaries/services"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	config       *config.Config
	log          logger.Logger
	httpServer   *http.Server
	router       *gin.Engine
	services     *services.Services
	cronManager  *cron.CronManager
	tracerCloser io.Closer
}

func NewServer(cfg *config.Config, db *gorm.DB, log logger.Logger, k8s kubernetes.Interface, tracerCloser io.Closer) (*Server, error) {
	svcs, err := services.InitServices(cfg, db, log)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	return &Server{
		config:       cfg,
		log:          log,
		router:       router,
		services:     svcs,
		cronManager:  cron.NewCronManager(cfg.CronConfig, log, k8s, svcs.Job),
		tracerCloser: tracerCloser,
		httpServer: &http.Server{
			Addr:              ":" + cfg.AppConfig.APIPort,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api.RegisterRoutes(s.router, s.services.Job, s.config.AppConfig.APIKey, s.log)

	if err := s.cronManager.Start(ctx); err != nil {
		return errors.Wrap(err, "start cron manager")
	}

	if s.config.AppConfig.RunOnStart {
		go s.runOnStart(ctx)
	}

	go func() {
		defer tracing.RecoverAndLogToJaeger(s.log)
		s.log.Infof("Starting HTTP server on port %s", s.config.AppConfig.APIPort)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()
	s.log.Info("dmarc-summaries is now running")

	return s.waitForShutdown(ctx, cancel)
}

func (s *Server) runOnStart(ctx context.Context) {
	defer tracing.RecoverAndLogToJaeger(s.log)

	result, err := s.services.Job.Execute(ctx)
	switch {
	case errors.Is(err, er.ErrRunInProgress):
		s.log.Warn("Startup reconciliation skipped, a run is already in progress")
	case err != nil:
		s.log.Errorf("Startup reconciliation failed: %v", err)
	default:
		s.log.Infof("Startup reconciliation %s completed", result.RunID)
	}
}

func (s *Server) waitForShutdown(ctx context.Context, cancel context.CancelFunc) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		s.log.Infof("Received %s, shutting down", sig)
	case <-ctx.Done():
		s.log.Warn("Server context ended, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("HTTP server shutdown error: %v", err)
	}

	s.cronManager.Stop()

	if err := s.services.Close(); err != nil {
		s.log.Errorf("Closing services: %v", err)
	}
	if s.tracerCloser != nil {
		if err := s.tracerCloser.Close(); err != nil {
			s.log.Errorf("Closing tracer: %v", err)
		}
	}

	s.log.Info("Shutdown complete")
	return nil
}
