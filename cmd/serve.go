package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dataweston/Dinewith/internal/data/repository"
	"github.com/dataweston/Dinewith/internal/payment"
	"github.com/dataweston/Dinewith/internal/usecase"
	"github.com/dataweston/Dinewith/internal/wire"
	"github.com/dataweston/Dinewith/pkg/cache"
	"github.com/dataweston/Dinewith/pkg/database"
	"github.com/dataweston/Dinewith/pkg/notify"
	"github.com/dataweston/Dinewith/pkg/tracing"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 15 * time.Second
	sessionSweep    = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	config, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	environment := "production"
	if config.App.Debug {
		environment = "development"
	}
	shutdownTracing, err := tracing.Init(config.Tracing, environment)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	logger.Info("Database connected successfully")

	listingCache, closeCache := cache.New(config.Redis, logger)
	defer closeCache()

	gateway, err := buildGateway(config, logger)
	if err != nil {
		return err
	}

	repos := repository.NewRepository(db, logger)
	app, err := wire.Wiring(repos, wire.Deps{
		Gateway:      gateway,
		Notifier:     notify.New(config.Email, logger),
		ListingCache: listingCache,
	}, config, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sweepSessions(ctx, app.Service.Auth, logger)

	server := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", config.App.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received terminate, graceful shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Cannot gracefully shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Tracer shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
	return nil
}

// buildGateway orders the configured processors as primary then secondary.
func buildGateway(config *utils.Config, logger *zap.Logger) (*payment.Gateway, error) {
	available := map[string]payment.Processor{}
	if config.Square.AccessToken != "" {
		available[payment.ProcessorSquare] = payment.NewSquareProcessor(config.Square, &http.Client{Timeout: config.Payment.Timeout})
	}
	if config.Braintree.MerchantID != "" {
		available[payment.ProcessorBraintree] = payment.NewBraintreeProcessor(config.Braintree, &http.Client{Timeout: config.Payment.Timeout})
	}

	var ordered []payment.Processor
	for _, name := range []string{config.Payment.Primary, config.Payment.Secondary} {
		if p, ok := available[name]; ok {
			ordered = append(ordered, p)
			delete(available, name)
		}
	}
	if len(ordered) == 0 {
		return nil, errors.New("no payment processor configured")
	}

	gateway := payment.NewGateway(logger, config.Payment.Timeout, ordered...)
	logger.Info("Payment gateway ready", zap.Strings("processors", gateway.Processors()))
	return gateway, nil
}

// sweepSessions deletes expired sessions until ctx is done.
func sweepSessions(ctx context.Context, auth usecase.AuthService, logger *zap.Logger) {
	ticker := time.NewTicker(sessionSweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := auth.CleanExpiredSessions(ctx)
			if err != nil {
				logger.Warn("Session sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("Expired sessions removed", zap.Int64("count", removed))
			}
		}
	}
}
