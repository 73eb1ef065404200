package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	amqpAdapter "github.com/YelzhanWeb/repairdesk/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/repairdesk/internal/adapter/http"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/logger"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/memory"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/metrics"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/postgres"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/rabbitmq"
	redisAdapter "github.com/YelzhanWeb/repairdesk/internal/adapter/redis"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/websocket"
	"github.com/YelzhanWeb/repairdesk/internal/app/admin"
	"github.com/YelzhanWeb/repairdesk/internal/app/auth"
	"github.com/YelzhanWeb/repairdesk/internal/app/customer"
	"github.com/YelzhanWeb/repairdesk/internal/app/order"
	appPrinting "github.com/YelzhanWeb/repairdesk/internal/app/printing"
	"github.com/YelzhanWeb/repairdesk/internal/app/tracking"
	"github.com/YelzhanWeb/repairdesk/internal/app/workshop"
	"github.com/YelzhanWeb/repairdesk/internal/config"
	"github.com/YelzhanWeb/repairdesk/internal/interfaces"
	"github.com/YelzhanWeb/repairdesk/internal/printing"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and realtime order feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := setup("api")
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg, lgr)
	},
}

func runServe(ctx context.Context, cfg *config.Config, lgr logger.Logger) error {
	// 1. PostgreSQL и миграции
	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer db.Close()

	version, err := postgres.Migrate(ctx, db)
	if err != nil {
		return err
	}
	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"schema_version": version,
	})

	checks := []httpAdapter.HealthCheck{{
		Name:  "postgres",
		Check: func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	}}

	// 2. Метрики и realtime hub
	reg := metrics.NewRegistry()
	hub := websocket.NewHub(lgr, metrics.NewWebSocketMetrics(reg))
	defer hub.Stop()

	// 3. Хранилище принтеров: Redis, иначе память процесса
	var printers interfaces.PrinterStore
	if cfg.RedisURL != "" {
		rdb, err := redisAdapter.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer rdb.Close()

		printers = redisAdapter.NewPrinterStore(rdb)
		checks = append(checks, httpAdapter.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		lgr.Info("redis_connected", "Connected to Redis", "startup", nil)
	} else {
		printers = memory.NewPrinterStore()
		lgr.Info("printer_store_memory", "REDIS_URL not set, printer settings are kept in memory", "startup", nil)
	}

	// 4. Лента изменений: RabbitMQ fanout, иначе напрямую в hub
	var publisher interfaces.ChangePublisher = hub
	if cfg.RabbitMQURL != "" {
		mqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer mqConn.Close()

		publisher = rabbitmq.NewPublisher(mqConn)
		consumer := rabbitmq.NewConsumer(mqConn, cfg.RabbitMQPrefetch, lgr)
		changeHandler := amqpAdapter.NewChangeHandler(hub, lgr)

		go func() {
			if err := consumer.ConsumeOrderChanges(ctx, changeHandler.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
				lgr.Error("consumer_error", "Order changes consumer stopped", "runtime", nil, err)
			}
		}()

		checks = append(checks, httpAdapter.HealthCheck{
			Name: "rabbitmq",
			Check: func(ctx context.Context) error {
				if mqConn.IsClosed() {
					return errors.New("rabbitmq connection is closed")
				}
				return nil
			},
		})
		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"exchange": rabbitmq.ChangesExchange,
		})
	}

	// 5. Сервисы
	clock := clockwork.NewRealClock()
	orderRepo := postgres.NewOrderRepository(db)
	customerRepo := postgres.NewCustomerRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	inviteRepo := postgres.NewInviteRepository(db)

	renderer, err := printing.NewRenderer(printing.Shop{
		Name:    cfg.ShopName,
		Address: cfg.ShopAddress,
		Phone:   cfg.ShopPhone,
	}, time.Local)
	if err != nil {
		return err
	}

	services := httpAdapter.Services{
		Auth:      auth.NewService(profileRepo, inviteRepo, clock, lgr),
		Admin:     admin.NewService(profileRepo, inviteRepo, clock, cfg.InviteTTL, lgr),
		Customers: customer.NewService(customerRepo, clock, lgr),
		Orders:    order.NewService(orderRepo, customerRepo, profileRepo, publisher, clock, lgr, metrics.NewOrderMetrics(reg)),
		Workshop:  workshop.NewService(orderRepo, profileRepo, clock, lgr),
		Tracking:  tracking.NewService(orderRepo, profileRepo, clock, cfg.PresenceTimeout, lgr),
		Printing:  appPrinting.NewService(orderRepo, printers, renderer, clock, lgr),
	}

	// 6. HTTP сервер
	server := httpAdapter.NewServer(cfg, services, hub, reg, lgr, checks...)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	lgr.Info("service_started", fmt.Sprintf("API started on %s", cfg.HTTPAddr), "startup", map[string]interface{}{
		"addr":     cfg.HTTPAddr,
		"app_env":  cfg.AppEnv,
		"rabbitmq": cfg.RabbitMQURL != "",
		"redis":    cfg.RedisURL != "",
	})

	// Graceful shutdown
	select {
	case err := <-errCh:
		lgr.Error("server_error", "Server error", "runtime", nil, err)
		return err
	case <-ctx.Done():
	}

	lgr.Info("shutdown_initiated", "Shutting down API", "shutdown", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		return err
	}
	return nil
}
