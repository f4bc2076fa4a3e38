package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-client/internal/auth"
	"chat-client/internal/config"
	"chat-client/internal/observability"
	"chat-client/internal/ops"
	"chat-client/internal/rabbitmq"
	"chat-client/internal/realtime"
	"chat-client/internal/rest"
	"chat-client/internal/session"
	"chat-client/internal/store"
	"chat-client/internal/telemetry"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, "chat-client", cfg.Environment)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Printf("tracing shutdown: %v", err)
			}
		}()
	}

	if cfg.AMQPURL != "" {
		eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("event publisher disabled: %v", err)
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit.chat-client", "chat-client", cfg.Environment)
	log.Printf("audit publisher mode: %s", rabbitmq.PublisherMode(auditPublisher))

	httpClient := &http.Client{Timeout: 15 * time.Second}

	loginCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	creds, err := auth.Login(loginCtx, cfg.APIBaseURL, httpClient, cfg.Username, cfg.Password)
	cancel()
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	user := creds.User()
	log.Printf("logged in as %s (id %d)", user.Username, user.ID)

	api := rest.NewClient(cfg.APIBaseURL, httpClient, creds)
	st := store.New()
	rt := realtime.NewClient(realtime.WSDialer{Endpoint: cfg.WSEndpoint}, creds, cfg.ReconnectDelay)

	sess := session.New(user, api, rt, st, auditEmitter)
	if err := sess.Start(ctx); err != nil {
		log.Fatalf("session start failed: %v", err)
	}

	router := ops.NewRouter(sess, auditEmitter, ops.Options{
		DebugToken:  cfg.DebugToken,
		DebugRoutes: cfg.DebugRoutes,
	})
	opsServer := &http.Server{Addr: cfg.OpsAddr, Handler: router}
	go func() {
		log.Printf("ops server listening on %s", cfg.OpsAddr)
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ops server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("ops server shutdown: %v", err)
	}

	sess.Close()
}
