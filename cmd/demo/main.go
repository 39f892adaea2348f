package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	esewa "github.com/noah-isme/esewa-epay"
	"github.com/noah-isme/esewa-epay/internal/config"
	"github.com/noah-isme/esewa-epay/internal/logging"
	"github.com/noah-isme/esewa-epay/internal/merchant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	paymentURL := cfg.PaymentURL
	statusCheckURL := cfg.StatusCheckURL
	if paymentURL == "" {
		paymentURL = esewa.SandboxPaymentURL
		if cfg.EsewaProduction {
			paymentURL = esewa.DefaultPaymentURL
		}
	}
	if statusCheckURL == "" {
		statusCheckURL = esewa.SandboxStatusCheckURL
		if cfg.EsewaProduction {
			statusCheckURL = esewa.DefaultStatusCheckURL
		}
	}

	client := &esewa.Client{
		Secret:         cfg.EsewaSecret,
		ProductCode:    cfg.EsewaProductCode,
		SuccessURL:     cfg.SuccessURL,
		FailureURL:     cfg.FailureURL,
		PaymentURL:     paymentURL,
		StatusCheckURL: statusCheckURL,
		Timeout:        cfg.StatusTimeout,
	}

	handler := &merchant.Handler{Client: client, Logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(logging.RequestLogger{Logger: logger}.Middleware)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/payments", handler.CreatePayment)
		r.Get("/payments/{transactionUUID}/status", handler.Status)
	})
	r.Get("/callback/success", handler.Callback)
	r.Get("/callback/failure", handler.Callback)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("merchant demo listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("merchant demo stopped")
}
