package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"connext-backend/internal/auth"
	"connext-backend/internal/cache"
	"connext-backend/internal/config"
	"connext-backend/internal/db"
	"connext-backend/internal/grpcserver"
	"connext-backend/internal/handlers"
	"connext-backend/internal/imagestore"
	"connext-backend/internal/middleware"
	"connext-backend/internal/observability"
	"connext-backend/internal/rabbitmq"
	"connext-backend/internal/repositories"
	"connext-backend/internal/server"
	"connext-backend/internal/service"
	"connext-backend/internal/telemetry"
	"connext-backend/internal/ws"
)

const (
	auditRoutingKey = "audit_logs.connext"
	shutdownTimeout = 10 * time.Second
	healthInterval  = 10 * time.Second
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API, websocket endpoint and gRPC health service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.Config)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Info().Str("mode", rabbitmq.PublisherMode(publisher)).Str("reason", rabbitmq.PublisherNoopReason(publisher)).Msg("event publisher ready")
	audit := telemetry.NewAuditEmitter(publisher, auditRoutingKey, cfg.ServiceName, cfg.Env)

	groupCache := cache.New(cfg.RedisURL)
	defer groupCache.Close()

	images, err := imagestore.New(cfg.CloudinaryURL, cfg.UploadDir)
	if err != nil {
		return err
	}
	tokens := auth.NewTokens(cfg.JWTSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute)

	userRepo := repositories.NewUserRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()
	fanout := ws.NewFanout(hub)

	users := service.NewUserService(userRepo, images, fanout, tokens)
	messages := service.NewMessageService(messageRepo, userRepo, groupRepo, images, fanout, groupCache)
	groups := service.NewGroupService(groupRepo, userRepo, messageRepo, images, fanout, groupCache)

	limiter := middleware.NewRateLimiter(rate.Every(time.Second/20), 40, 10*time.Minute)
	go limiter.Run()
	defer limiter.Stop()

	deps := server.Deps{
		Auth:     handlers.NewAuthHandler(users, audit, tokens.TTL(), cfg.Env != "dev"),
		Messages: handlers.NewMessageHandler(messages, users, audit),
		Groups:   handlers.NewGroupHandler(groups, messages, audit),
		Users:    handlers.NewUserHandler(users, audit),
		WS:       ws.NewHandler(hub, tokens, cfg.CORSOrigin),
		Verifier: tokens,
		Limiter:  limiter,
		Audit:    audit,
	}
	if local, ok := images.(*imagestore.Local); ok {
		deps.UploadDir = local.Dir()
	}

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.SetupRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv := grpcserver.New()
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}
	go grpcSrv.Watch(ctx, healthInterval, database.PingContext, groupCache.Ping)

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-errCh:
		log.Error().Err(err).Msg("server failed")
	}

	hub.CloseAll(websocket.CloseGoingAway, "server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("http shutdown")
	}
	grpcSrv.Stop()
	return err
}
