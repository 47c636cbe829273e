package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/agentchaos/chaosproxy/internal/controlplane"
	"github.com/agentchaos/chaosproxy/internal/core"
	"github.com/agentchaos/chaosproxy/internal/events"
	"github.com/agentchaos/chaosproxy/internal/logs"
	"github.com/agentchaos/chaosproxy/internal/plan"
	"github.com/agentchaos/chaosproxy/internal/redact"
	"github.com/agentchaos/chaosproxy/internal/secret"
)

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := loadRuntimeConfig()

	if cfg.JWTStrict && cfg.JWTSecret == "" {
		return &strictDependencyError{err: errors.New("CHAOS_JWT_STRICT=true requires CHAOS_JWT_SECRET")}
	}

	zapLogger, err := logs.SetupLogger(cfg.logConfig())
	if err != nil {
		return fmt.Errorf("set up logger: %w", err)
	}
	defer zapLogger.Sync() //nolint:errcheck
	logger := zapLogger.Sugar()

	if cfg.PlanPath == "" {
		return &planLoadError{err: errors.New("--plan (or CHAOS_PLAN) is required")}
	}
	resolver := secret.NewResolver()
	strict := plan.StrictMode{ClassifierStrict: cfg.ClassifierStrict}
	loadedPlan, err := plan.LoadPlan(ctx, cfg.PlanPath, strict, resolver)
	if err != nil {
		return &planLoadError{err: err}
	}
	planStore := plan.NewStore(loadedPlan)
	logger.Infow("loaded chaos plan", "name", loadedPlan.Metadata.Name, "revision", loadedPlan.Revision)

	registry := prometheus.NewRegistry()
	scorecard := events.NewScorecard(registry)
	dashboard := events.NewDashboardHub()
	raceChecker := events.NewRaceChecker(scorecard)
	redactor := redact.New(cfg.PIIRedaction)
	logSink := events.NewLogSink(eventLogWriter(cfg), redactor)

	evPipeline := events.NewPipeline(0, logSink, dashboard, scorecard, raceChecker)
	go evPipeline.Run()
	defer evPipeline.Stop()

	tracer, err := events.NewFlowTracer(events.TracingConfig{
		Enabled:      cfg.OTelEnabled,
		OTLPEndpoint: cfg.OTelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer tracer.Close(context.Background()) //nolint:errcheck

	pipeline := core.New(planStore, newHTTPUpstream(), evPipeline, tracer)

	var auditLog *controlplane.AuditLog
	if cfg.AuditLogPath != "" {
		auditLog, err = controlplane.NewAuditLog(cfg.AuditLogPath)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		defer auditLog.Close() //nolint:errcheck
	}

	controlServer := controlplane.NewServer(controlplane.Config{
		ChaosToken: cfg.ChaosToken,
		JWTStrict:  cfg.JWTStrict,
		JWTSecret:  cfg.JWTSecret,
		Strict:     strict,
	}, logger, planStore, pipeline, scorecard, dashboard, tracer, auditLog)

	proxySrv := &http.Server{Addr: cfg.Listen, Handler: &proxyHandler{pipeline: pipeline}}
	controlSrv := &http.Server{Addr: cfg.ControlListen, Handler: controlServer}

	errCh := make(chan error, 2)
	go func() { errCh <- listenAndServe(proxySrv) }()
	go func() { errCh <- listenAndServe(controlSrv) }()

	logger.Infow("chaosproxy listening", "proxy", cfg.Listen, "control", cfg.ControlListen)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = proxySrv.Shutdown(shutdownCtx)
	_ = controlSrv.Shutdown(shutdownCtx)
	return pipeline.Shutdown()
}

func listenAndServe(srv *http.Server) error {
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		var netErr *net.OpError
		if errors.As(err, &netErr) {
			return fmt.Errorf("bind %s: %w", srv.Addr, err)
		}
		return err
	}
	return nil
}

// eventLogWriter picks the event sink's destination: a rotated file via
// lumberjack when CHAOS_EVENT_LOG is set, stdout otherwise, matching
// internal/logs' own file-vs-console core split.
func eventLogWriter(cfg *runtimeConfig) zapcore.WriteSyncer {
	if cfg.EventLogPath == "" {
		return zapcore.AddSync(os.Stdout)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.EventLogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
}
