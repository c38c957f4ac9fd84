package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adapthttp "heartscore/internal/adapter/http"
	"heartscore/internal/auth"
	"heartscore/internal/telemetry"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		logger.Info("heartscore starting", "version", version, "addr", cfg.Addr, "store", cfg.Store, "health_source", cfg.HealthSource)

		otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() { _ = otelShutdown(context.Background()) }()

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = b.close() }()

		svc, err := newServices(cfg, b, logger)
		if err != nil {
			return err
		}

		jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration, logger)
		if err != nil {
			return err
		}

		var oidcCfg adapthttp.OIDCConfig
		if cfg.SSOEnabled() {
			oidcCfg, err = adapthttp.NewOIDCConfig(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret, cfg.OIDCRedirectURL)
			if err != nil {
				return err
			}
			logger.Info("sso enabled", "issuer", cfg.OIDCIssuer)
		}

		server := adapthttp.New(adapthttp.Services{
			Scores:       svc.scores,
			Streaks:      svc.streaks,
			Achievements: svc.achievements,
			Ledger:       svc.ledger,
			Readings:     svc.readings,
			History:      svc.history,
			Job:          svc.job,
			Auth:         svc.auth,
		}, adapthttp.Options{
			WebDir:       cfg.WebDir,
			OIDC:         oidcCfg,
			Tokens:       jwtMgr,
			MaxBodyBytes: cfg.MaxRequestBytes,
		}, logger)

		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           server.Handler(),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", cfg.Addr)
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		return httpServer.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
