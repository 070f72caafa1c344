package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/finance-ops/internal/core/events"
	"github.com/frahmantamala/finance-ops/internal/notification"
	"github.com/frahmantamala/finance-ops/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish test events through the event bus and the notification webhook.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a transition event to the event bus. When a webhook is configured the notification is delivered before the command exits.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := publishTestEvent(cmd.Context(), args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to publish event: %v\n", err)
			os.Exit(1)
		}
	},
}

var (
	eventEntityType string
	eventEntityID   int64
	eventNewStatus  string
	eventAmount     int64
)

func publishTestEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := logger.LoggerWrapper()

	dispatcher := notification.NewDispatcher(notification.Config{
		WebhookURL: config.Notification.WebhookURL,
		Timeout:    config.Notification.Timeout,
	}, logger)

	eventBus := events.NewEventBus(logger)
	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		n := notification.FromEvent(event)
		logger.Info("test handler received event",
			"event_id", n.EventID,
			"event_type", n.EventType,
			"entity_type", n.EntityType,
			"entity_id", n.EntityID)

		if !dispatcher.Enabled() {
			return nil
		}
		return dispatcher.Send(ctx, notification.Job{EventID: n.EventID, EventType: n.EventType, Payload: n})
	})

	event := events.NewTransitionEvent(eventType, eventEntityType, eventEntityID, "", eventNewStatus, "cli", eventAmount)

	logger.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())
	if err := eventBus.PublishSync(ctx, event); err != nil {
		return err
	}

	logger.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventEntityType, "entity-type", "test", "Entity type carried by the event")
	publishEventCmd.Flags().Int64Var(&eventEntityID, "entity-id", 0, "Entity id carried by the event")
	publishEventCmd.Flags().StringVar(&eventNewStatus, "status", "", "New status carried by the event")
	publishEventCmd.Flags().Int64Var(&eventAmount, "amount", 0, "Amount carried by the event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
