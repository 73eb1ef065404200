package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	amqpAdapter "github.com/YelzhanWeb/repairdesk/internal/adapter/amqp"
	"github.com/YelzhanWeb/repairdesk/internal/adapter/rabbitmq"
)

var subscriberCmd = &cobra.Command{
	Use:   "subscriber",
	Short: "Print every order change from the RabbitMQ feed to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, lgr, err := setup("notification-subscriber")
		if err != nil {
			return err
		}
		if cfg.RabbitMQURL == "" {
			return errors.New("configuration error: RABBITMQ_URL is required")
		}

		mqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer mqConn.Close()

		consumer := rabbitmq.NewConsumer(mqConn, cfg.RabbitMQPrefetch, lgr)
		handler := amqpAdapter.NewNotificationHandler(os.Stdout, lgr)

		lgr.Info("service_started", "Notification subscriber started", "startup", map[string]interface{}{
			"exchange": rabbitmq.ChangesExchange,
		})

		err = consumer.ConsumeOrderChanges(cmd.Context(), handler.HandleNotification)
		if errors.Is(err, context.Canceled) {
			lgr.Info("graceful_shutdown", "Shutting down notification subscriber", "shutdown", nil)
			return nil
		}
		return err
	},
}
