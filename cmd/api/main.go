package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/willjrcristo/floating-notes-license/docs" // Importa a pasta docs
	"github.com/willjrcristo/floating-notes-license/internal/config"
	httphandler "github.com/willjrcristo/floating-notes-license/internal/handler/http"
	"github.com/willjrcristo/floating-notes-license/internal/mailer"
	"github.com/willjrcristo/floating-notes-license/internal/payment"
	"github.com/willjrcristo/floating-notes-license/internal/repository"
	"github.com/willjrcristo/floating-notes-license/internal/service"
)

// @title           Floating Notes License API
// @version         1.0
// @description     Registro de usuários, verificação de licenças e assinaturas Pro via Stripe.
//
// @contact.name   Will Cristo
// @contact.url    https://linkedin.com/in/willjrcristo
// @contact.email  willjrcristo@gmail.com
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @host      localhost:8080
// @BasePath  /
func main() {
	// --- 1. CONFIGURAÇÃO ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Erro ao carregar configuração", "error", err)
		os.Exit(1)
	}

	// --- 2. LOGGER ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	slog.Info("🚀 Iniciando a API de Licenças...")

	// --- 3. ARMAZENAMENTO ---
	repo, err := openRepository(cfg)
	if err != nil {
		slog.Error("Erro ao inicializar o armazenamento", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("💾 Armazenamento pronto", "driver", cfg.StorageDriver)

	// --- 4. INJEÇÃO DE DEPENDÊNCIAS (WIRING) ---
	// Repository -> Service -> Handler
	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		PriceID:       cfg.StripePriceID,
		SuccessURL:    cfg.CheckoutSuccessURL,
		CancelURL:     cfg.CheckoutCancelURL,
	})
	if !cfg.StripeEnabled() {
		slog.Warn("Stripe sem STRIPE_SECRET_KEY/STRIPE_PRICE_ID: checkout desabilitado")
	}
	if !cfg.WebhookEnabled() {
		slog.Warn("Stripe sem STRIPE_WEBHOOK_SECRET: /webhooks/stripe responde 503 e nenhuma licença é ativada")
	}

	authService := service.NewAuthService(repo)
	licenseService := service.NewLicenseService(repo)
	subscriptionService := service.NewSubscriptionService(repo, gateway, newMailer(cfg), cfg.LicenseDuration)
	slog.Info("Camada de serviço inicializada")

	authHandler := httphandler.NewAuthHandler(authService)
	licenseHandler := httphandler.NewLicenseHandler(licenseService)
	subscriptionHandler := httphandler.NewSubscriptionHandler(subscriptionService)
	webhookHandler := httphandler.NewStripeWebhookHandler(subscriptionService)
	healthHandler := httphandler.NewHealthHandler(repo)
	slog.Info("Camada de handler inicializada")

	// --- 5. ROTEADOR E ROTAS ---
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(prometheusMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/", healthHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	// A URL será http://localhost:8080/swagger/index.html
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Mount("/api/auth", authHandler.Routes())
	r.Mount("/api/licenses", licenseHandler.Routes())
	r.Mount("/api/subscriptions", subscriptionHandler.Routes())
	r.Post("/webhooks/stripe", webhookHandler.HandleStripeWebhook)
	slog.Info("🛰️  Rotas registradas")

	// --- 6. SERVIDOR HTTP ---
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("✅ Servidor pronto para receber requisições", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Erro ao iniciar o servidor", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("Encerrando o servidor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Erro ao encerrar o servidor", "error", err)
	}
}

func openRepository(cfg *config.Config) (repository.Repository, error) {
	if cfg.StorageDriver == config.StorageSQLite {
		return repository.OpenSQLite(cfg.SQLitePath)
	}
	return repository.NewJSONFileRepository(cfg.DataFile)
}

func newMailer(cfg *config.Config) service.Mailer {
	if cfg.SMTPHost == "" {
		return mailer.LogMailer{}
	}
	return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
}
